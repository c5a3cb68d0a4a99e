package board

import (
	"errors"
	"fmt"
	"sort"
)

type Status string

const (
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	StatusReroll     Status = "Reroll"
	StatusDropped    Status = "Dropped"
)

// DropPenaltyDice marks a dropped game whose position penalty was already applied.
const DropPenaltyDice = -12

const (
	MinDice = 1
	MaxDice = 12
)

var socialPlatforms = []string{"twitch", "youtube", "telegram", "discord", "vk"}

var ErrUnknownSocialPlatform = errors.New("unknown social platform")

func (s Status) Valid() bool {
	switch s {
	case StatusInProgress, StatusCompleted, StatusReroll, StatusDropped:
		return true
	default:
		return false
	}
}

type GameRecord struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Comment string `json:"comment"`
	Dice    int    `json:"dice"`
}

// Entity is a player token on the board. X and Y stay nil until the token
// has been placed at least once.
type Entity struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	Avatar      string            `json:"avatar"`
	SocialLinks map[string]string `json:"socialLinks"`
	Games       []GameRecord      `json:"games"`
	IsOnline    bool              `json:"isOnline"`
	Position    int               `json:"position"`
	X           *float64          `json:"x"`
	Y           *float64          `json:"y"`
}

// Point is a pixel coordinate on the board canvas.
type Point struct {
	X float64
	Y float64
}

func (e Entity) HasPosition() bool {
	return e.X != nil && e.Y != nil
}

func (e Entity) Point() (Point, bool) {
	if !e.HasPosition() {
		return Point{}, false
	}
	return Point{X: *e.X, Y: *e.Y}, true
}

func (e *Entity) SetPoint(p Point) {
	x, y := p.X, p.Y
	e.X = &x
	e.Y = &y
}

// Clone returns a deep copy so callers can hand entities across goroutines.
func (e Entity) Clone() Entity {
	out := e
	if e.SocialLinks != nil {
		out.SocialLinks = make(map[string]string, len(e.SocialLinks))
		for k, v := range e.SocialLinks {
			out.SocialLinks[k] = v
		}
	}
	if e.Games != nil {
		out.Games = append([]GameRecord(nil), e.Games...)
	}
	if e.X != nil {
		x := *e.X
		out.X = &x
	}
	if e.Y != nil {
		y := *e.Y
		out.Y = &y
	}
	return out
}

// SortByPosition orders entities by their list ordinal, then id.
func SortByPosition(entities []Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		if entities[i].Position != entities[j].Position {
			return entities[i].Position < entities[j].Position
		}
		return entities[i].ID < entities[j].ID
	})
}

func SocialPlatforms() []string {
	return append([]string(nil), socialPlatforms...)
}

func ValidateSocialLinks(links map[string]string) error {
	for key := range links {
		known := false
		for _, platform := range socialPlatforms {
			if key == platform {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w: %s", ErrUnknownSocialPlatform, key)
		}
	}
	return nil
}

// EmptySocialLinks returns a map holding every known platform with no value.
func EmptySocialLinks() map[string]string {
	links := make(map[string]string, len(socialPlatforms))
	for _, platform := range socialPlatforms {
		links[platform] = ""
	}
	return links
}
