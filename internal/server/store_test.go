package server

import (
	"errors"
	"testing"

	"board-tracker/internal/board"
)

func movePoint(store *Store, id int, x, y float64) (board.Entity, error) {
	return store.UpdateEntity(id, func(entity *board.Entity) error {
		entity.SetPoint(board.Point{X: x, Y: y})
		return nil
	})
}

func TestStoreUpdateLastWriteWins(t *testing.T) {
	store := NewStore()
	store.Restore(defaultRoster())

	if _, err := movePoint(store, 3, 100, 100); err != nil {
		t.Fatalf("set position: %v", err)
	}
	if _, err := movePoint(store, 3, 250, 300); err != nil {
		t.Fatalf("set position: %v", err)
	}
	entity, ok := store.Entity(3)
	if !ok {
		t.Fatalf("expected entity 3")
	}
	point, placed := entity.Point()
	if !placed || point != (board.Point{X: 250, Y: 300}) {
		t.Fatalf("expected last write to win, got %#v", point)
	}
}

func TestStoreUnknownEntity(t *testing.T) {
	store := NewStore()
	if _, err := movePoint(store, 42, 1, 1); !errors.Is(err, ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestStoreUpdateFailureLeavesEntityUntouched(t *testing.T) {
	store := NewStore()
	store.Restore(defaultRoster())
	before, _ := store.Entity(2)
	failure := errors.New("write failed")

	_, err := store.UpdateEntity(2, func(entity *board.Entity) error {
		entity.Name = "Renamed"
		entity.SetPoint(board.Point{X: 9, Y: 9})
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("expected update error, got %v", err)
	}
	after, _ := store.Entity(2)
	if after.Name != before.Name {
		t.Fatalf("expected name untouched, got %q", after.Name)
	}
	if _, placed := after.Point(); placed {
		t.Fatalf("expected entity to stay unplaced, got %#v", after)
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	store := NewStore()
	store.Restore(defaultRoster())
	list := store.AllEntities()
	list[0].Name = "mutated"
	list[0].SocialLinks["twitch"] = "mutated"
	fresh, _ := store.Entity(list[0].ID)
	if fresh.Name == "mutated" || fresh.SocialLinks["twitch"] == "mutated" {
		t.Fatalf("expected store to hand out copies, got %#v", fresh)
	}
}

func TestStoreCurrentUser(t *testing.T) {
	store := NewStore()
	if _, ok := store.CurrentUser(); ok {
		t.Fatalf("expected no current user")
	}
	store.SetCurrentUser(board.User{ID: 2, Name: "Bram", Role: board.RolePlayer})
	user, ok := store.CurrentUser()
	if !ok || user.ID != 2 {
		t.Fatalf("expected current user 2, got %#v", user)
	}
	previous, ok := store.ClearCurrentUser()
	if !ok || previous.ID != 2 {
		t.Fatalf("expected cleared user 2, got %#v", previous)
	}
	if _, ok := store.CurrentUser(); ok {
		t.Fatalf("expected no current user after clear")
	}
}
