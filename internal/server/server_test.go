package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"board-tracker/internal/board"
	"board-tracker/internal/config"
)

func TestListPlayersSeedsRoster(t *testing.T) {
	_, ts := newTestApp(t, config.Default())

	resp := doRequest(t, ts, http.MethodGet, "/api/players", nil)
	expectStatus(t, resp, http.StatusOK)
	var players []board.Entity
	decodeInto(t, resp, &players)
	if len(players) != len(rosterNames) {
		t.Fatalf("expected %d players, got %d", len(rosterNames), len(players))
	}
	for i, player := range players {
		if player.Position != i+1 {
			t.Fatalf("expected players ordered by position, got %d at %d", player.Position, i)
		}
		if player.HasPosition() {
			t.Fatalf("expected fresh roster to be unplaced, got %#v", player)
		}
		if len(player.SocialLinks) != len(board.SocialPlatforms()) {
			t.Fatalf("expected every social platform key, got %#v", player.SocialLinks)
		}
	}
}

func TestSetPosition(t *testing.T) {
	srv, ts := newTestApp(t, config.Default())

	resp := doRequest(t, ts, http.MethodPut, "/api/players/7/position", map[string]float64{"x": 250, "y": 300})
	expectStatus(t, resp, http.StatusOK)

	entity, _ := srv.Store().Entity(7)
	if point, ok := entity.Point(); !ok || point != (board.Point{X: 250, Y: 300}) {
		t.Fatalf("expected stored position 250,300, got %#v", point)
	}
}

func TestSetPositionValidation(t *testing.T) {
	_, ts := newTestApp(t, config.Default())

	resp := doRequest(t, ts, http.MethodPut, "/api/players/1/position", map[string]float64{"x": 10})
	expectStatus(t, resp, http.StatusBadRequest)
	var body map[string]string
	decodeInto(t, resp, &body)
	if body["error"] != "y is required" {
		t.Fatalf("expected y is required, got %q", body["error"])
	}

	resp = doRequest(t, ts, http.MethodPut, "/api/players/1/position", map[string]float64{"x": 1e9, "y": 0})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = doRequest(t, ts, http.MethodPut, "/api/players/99/position", map[string]float64{"x": 1, "y": 1})
	expectStatus(t, resp, http.StatusNotFound)

	resp = doRequest(t, ts, http.MethodPut, "/api/players/abc/position", map[string]float64{"x": 1, "y": 1})
	expectStatus(t, resp, http.StatusNotFound)
}

func TestSetFields(t *testing.T) {
	srv, ts := newTestApp(t, config.Default())

	resp := doRequest(t, ts, http.MethodPatch, "/api/players/2", map[string]any{
		"name":        "Bram the Bold",
		"socialLinks": map[string]string{"twitch": "bram", "youtube": ""},
	})
	expectStatus(t, resp, http.StatusOK)
	entity, _ := srv.Store().Entity(2)
	if entity.Name != "Bram the Bold" || entity.SocialLinks["twitch"] != "bram" {
		t.Fatalf("expected fields applied, got %#v", entity)
	}
	if len(entity.SocialLinks) != len(board.SocialPlatforms()) {
		t.Fatalf("expected every social platform key after partial links, got %#v", entity.SocialLinks)
	}

	resp = doRequest(t, ts, http.MethodPatch, "/api/players/2", map[string]any{
		"socialLinks": map[string]string{"myspace": "bram"},
	})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = doRequest(t, ts, http.MethodPatch, "/api/players/2", map[string]any{
		"games": []map[string]any{{"name": "x", "status": "Paused"}},
	})
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestDiceAndGameWorkflow(t *testing.T) {
	srv, ts := newTestApp(t, config.Default())

	resp := doRequest(t, ts, http.MethodPost, "/api/players/4/game", map[string]string{"name": "Celeste"})
	expectStatus(t, resp, http.StatusConflict)

	resp = doRequest(t, ts, http.MethodPost, "/api/players/4/dice", map[string]int{"value": 8})
	expectStatus(t, resp, http.StatusOK)

	resp = doRequest(t, ts, http.MethodPost, "/api/players/4/game", map[string]string{"name": "Celeste"})
	expectStatus(t, resp, http.StatusOK)

	entity, _ := srv.Store().Entity(4)
	last, ok := board.LastGame(entity.Games)
	if !ok || last.Name != "Celeste" || last.Dice != 8 || last.Status != board.StatusInProgress {
		t.Fatalf("expected named in-progress roll, got %#v", entity.Games)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/players/4/drop", map[string]string{"comment": "too long"})
	expectStatus(t, resp, http.StatusOK)
	entity, _ = srv.Store().Entity(4)
	if last, _ := board.LastGame(entity.Games); !board.PenaltyApplied(last) {
		t.Fatalf("expected drop penalty, got %#v", last)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/players/4/dice", map[string]int{"value": 13})
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestRollDiceWithoutValue(t *testing.T) {
	_, ts := newTestApp(t, config.Default())

	resp := doRequest(t, ts, http.MethodPost, "/api/players/5/dice", nil)
	expectStatus(t, resp, http.StatusOK)
	var body struct {
		Dice int `json:"dice"`
	}
	decodeInto(t, resp, &body)
	if body.Dice < board.MinDice || body.Dice > board.MaxDice {
		t.Fatalf("expected roll in range, got %d", body.Dice)
	}
}

func TestDiceAndDropAcceptEmptyChunkedBody(t *testing.T) {
	srv := New(nil, config.Default())
	if err := srv.LoadRoster(); err != nil {
		t.Fatalf("load roster: %v", err)
	}
	t.Cleanup(srv.Close)
	handler := srv.Handler()

	for _, path := range []string{"/api/players/5/dice", "/api/players/5/drop"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(""))
		req.ContentLength = -1
		req.TransferEncoding = []string{"chunked"}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200 for %s, got %d: %s", path, rec.Code, rec.Body.String())
		}
	}
	entity, _ := srv.Store().Entity(5)
	if len(entity.Games) != 1 || !board.PenaltyApplied(entity.Games[0]) {
		t.Fatalf("expected rolled then dropped game, got %#v", entity.Games)
	}
}

func TestLoginFlow(t *testing.T) {
	srv, ts := newTestApp(t, config.Default())

	resp := doRequest(t, ts, http.MethodGet, "/api/session", nil)
	expectStatus(t, resp, http.StatusNoContent)

	resp = doRequest(t, ts, http.MethodPost, "/api/login", map[string]string{"username": "Cleo", "password": "wrong"})
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = doRequest(t, ts, http.MethodPost, "/api/login", map[string]string{"username": "cleo", "password": "player"})
	expectStatus(t, resp, http.StatusOK)
	var user board.User
	decodeInto(t, resp, &user)
	if user.ID != 3 || user.Role != board.RolePlayer {
		t.Fatalf("expected player 3, got %#v", user)
	}
	entity, _ := srv.Store().Entity(3)
	if !entity.IsOnline {
		t.Fatalf("expected logged in player marked online")
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/login", map[string]string{"username": "admin", "password": "admin"})
	expectStatus(t, resp, http.StatusOK)
	entity, _ = srv.Store().Entity(3)
	if entity.IsOnline {
		t.Fatalf("expected replaced player marked offline")
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/session", nil)
	expectStatus(t, resp, http.StatusOK)
	decodeInto(t, resp, &user)
	if user.Role != board.RoleAdmin {
		t.Fatalf("expected admin session, got %#v", user)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/logout", nil)
	expectStatus(t, resp, http.StatusNoContent)
	if _, ok := srv.Store().CurrentUser(); ok {
		t.Fatalf("expected no current user after logout")
	}
}

func TestViewerLogin(t *testing.T) {
	_, ts := newTestApp(t, config.Default())

	resp := doRequest(t, ts, http.MethodPost, "/api/login", map[string]string{"username": "viewer"})
	expectStatus(t, resp, http.StatusOK)
	var user board.User
	decodeInto(t, resp, &user)
	if user.Role != board.RoleViewer {
		t.Fatalf("expected viewer, got %#v", user)
	}
}

func TestBoardView(t *testing.T) {
	srv, ts := newTestApp(t, config.Default())
	if _, err := srv.SetPosition(1, 10, 20); err != nil {
		t.Fatalf("set position: %v", err)
	}

	resp := doRequest(t, ts, http.MethodGet, "/", nil)
	expectStatus(t, resp, http.StatusOK)
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	html := string(data)
	if !strings.Contains(html, `id="player-1"`) || !strings.Contains(html, `data-x="10"`) {
		t.Fatalf("expected placed player in board page")
	}
	if !strings.Contains(html, "unplaced") {
		t.Fatalf("expected unplaced players flagged")
	}
}

func TestBoardQR(t *testing.T) {
	_, ts := newTestApp(t, config.Default())

	resp := doRequest(t, ts, http.MethodGet, "/qr?size=128", nil)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %s", ct)
	}

	resp = doRequest(t, ts, http.MethodGet, "/qr?size=5", nil)
	expectStatus(t, resp, http.StatusBadRequest)
}
