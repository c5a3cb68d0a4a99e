package board

import "reflect"

// Patch carries a partial update of an entity's non-position fields. A nil
// field is absent from the update.
type Patch struct {
	Name        *string           `json:"name,omitempty"`
	Avatar      *string           `json:"avatar,omitempty"`
	SocialLinks map[string]string `json:"socialLinks,omitempty"`
	Games       *[]GameRecord     `json:"games,omitempty"`
	IsOnline    *bool             `json:"isOnline,omitempty"`
	Position    *int              `json:"position,omitempty"`
}

func (p Patch) Empty() bool {
	return p.Name == nil && p.Avatar == nil && p.SocialLinks == nil && p.Games == nil &&
		p.IsOnline == nil && p.Position == nil
}

// Apply merges the present fields that differ from e into e and returns the
// subset that actually changed. Social links merge per platform; a changed
// link set is reported as the full map.
func (p Patch) Apply(e *Entity) Patch {
	var changed Patch
	if p.Name != nil && *p.Name != e.Name {
		e.Name = *p.Name
		changed.Name = ptr(e.Name)
	}
	if p.Avatar != nil && *p.Avatar != e.Avatar {
		e.Avatar = *p.Avatar
		changed.Avatar = ptr(e.Avatar)
	}
	if p.SocialLinks != nil {
		merged := mergeLinks(e.SocialLinks, p.SocialLinks)
		if !reflect.DeepEqual(merged, e.SocialLinks) {
			e.SocialLinks = merged
			changed.SocialLinks = copyLinks(merged)
		}
	}
	if p.Games != nil && !gamesEqual(*p.Games, e.Games) {
		e.Games = append([]GameRecord{}, (*p.Games)...)
		games := append([]GameRecord{}, (*p.Games)...)
		changed.Games = &games
	}
	if p.IsOnline != nil && *p.IsOnline != e.IsOnline {
		e.IsOnline = *p.IsOnline
		changed.IsOnline = ptr(e.IsOnline)
	}
	if p.Position != nil && *p.Position != e.Position {
		e.Position = *p.Position
		changed.Position = ptr(e.Position)
	}
	return changed
}

// ProfileOf returns a patch holding every non-position field of e.
func ProfileOf(e Entity) Patch {
	games := append([]GameRecord{}, e.Games...)
	return Patch{
		Name:        ptr(e.Name),
		Avatar:      ptr(e.Avatar),
		SocialLinks: copyLinks(e.SocialLinks),
		Games:       &games,
		IsOnline:    ptr(e.IsOnline),
		Position:    ptr(e.Position),
	}
}

func (p Patch) Validate() error {
	if p.SocialLinks != nil {
		if err := ValidateSocialLinks(p.SocialLinks); err != nil {
			return err
		}
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}

func copyLinks(links map[string]string) map[string]string {
	if links == nil {
		return nil
	}
	out := make(map[string]string, len(links))
	for k, v := range links {
		out[k] = v
	}
	return out
}

// mergeLinks overlays incoming on current. The result always holds every
// known platform key.
func mergeLinks(current, incoming map[string]string) map[string]string {
	out := EmptySocialLinks()
	for k, v := range current {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

func gamesEqual(a, b []GameRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
