package board

import (
	"errors"
	"testing"
)

func TestPatchApplyReportsOnlyChangedFields(t *testing.T) {
	x, y := 10.0, 20.0
	e := Entity{ID: 1, Name: "Ada", Avatar: "a.png", Position: 2, X: &x, Y: &y}
	name := "Ada"
	avatar := "b.png"
	online := true
	changed := Patch{Name: &name, Avatar: &avatar, IsOnline: &online}.Apply(&e)

	if changed.Name != nil {
		t.Fatalf("expected unchanged name to be omitted, got %q", *changed.Name)
	}
	if changed.Avatar == nil || *changed.Avatar != "b.png" {
		t.Fatalf("expected avatar change, got %#v", changed.Avatar)
	}
	if changed.IsOnline == nil || !*changed.IsOnline {
		t.Fatalf("expected online change, got %#v", changed.IsOnline)
	}
	if *e.X != 10 || *e.Y != 20 {
		t.Fatalf("expected position untouched, got %v,%v", *e.X, *e.Y)
	}
}

func TestPatchApplyCopiesGames(t *testing.T) {
	games := []GameRecord{{Name: "Tunic", Status: StatusInProgress, Dice: 6}}
	e := Entity{ID: 2}
	changed := Patch{Games: &games}.Apply(&e)
	games[0].Name = "mutated"
	if e.Games[0].Name != "Tunic" {
		t.Fatalf("expected entity games detached from patch, got %#v", e.Games)
	}
	if changed.Games == nil || (*changed.Games)[0].Name != "Tunic" {
		t.Fatalf("expected changed games, got %#v", changed.Games)
	}
	if again := (Patch{Games: changed.Games}).Apply(&e); !again.Empty() {
		t.Fatalf("expected re-applying same games to be a no-op, got %#v", again)
	}
}

func TestPatchApplyMergesSocialLinks(t *testing.T) {
	links := EmptySocialLinks()
	links["twitch"] = "ada"
	links["youtube"] = "adatube"
	e := Entity{ID: 1, SocialLinks: links}

	changed := Patch{SocialLinks: map[string]string{"twitch": "ada2"}}.Apply(&e)
	if len(e.SocialLinks) != len(SocialPlatforms()) {
		t.Fatalf("expected every platform key kept, got %#v", e.SocialLinks)
	}
	if e.SocialLinks["youtube"] != "adatube" || e.SocialLinks["twitch"] != "ada2" {
		t.Fatalf("expected partial links merged, got %#v", e.SocialLinks)
	}
	if len(changed.SocialLinks) != len(SocialPlatforms()) || changed.SocialLinks["twitch"] != "ada2" {
		t.Fatalf("expected full link map in changed patch, got %#v", changed.SocialLinks)
	}

	cleared := Patch{SocialLinks: map[string]string{"youtube": ""}}.Apply(&e)
	if cleared.Empty() || cleared.SocialLinks["youtube"] != "" {
		t.Fatalf("expected cleared link reported, got %#v", cleared)
	}
	if again := (Patch{SocialLinks: map[string]string{}}).Apply(&e); !again.Empty() {
		t.Fatalf("expected empty link patch to be a no-op, got %#v", again)
	}
}

func TestPatchApplyFillsMissingPlatformKeys(t *testing.T) {
	e := Entity{ID: 3}
	Patch{SocialLinks: map[string]string{"discord": "k"}}.Apply(&e)
	if len(e.SocialLinks) != len(SocialPlatforms()) || e.SocialLinks["discord"] != "k" {
		t.Fatalf("expected full link map, got %#v", e.SocialLinks)
	}
}

func TestPatchValidateSocialLinks(t *testing.T) {
	if err := (Patch{SocialLinks: map[string]string{"twitch": "ada"}}).Validate(); err != nil {
		t.Fatalf("expected known platform accepted, got %v", err)
	}
	err := (Patch{SocialLinks: map[string]string{"myspace": "ada"}}).Validate()
	if !errors.Is(err, ErrUnknownSocialPlatform) {
		t.Fatalf("expected ErrUnknownSocialPlatform, got %v", err)
	}
}

func TestFallbackPositionIsDeterministic(t *testing.T) {
	first := FallbackPosition(7)
	second := FallbackPosition(7)
	if first != second {
		t.Fatalf("expected stable grid position, got %v and %v", first, second)
	}
	if FallbackPosition(0) == FallbackPosition(1) {
		t.Fatalf("expected distinct grid cells")
	}
}
