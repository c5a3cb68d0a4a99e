package board

import (
	"errors"
	"strings"
)

var (
	ErrInvalidDice   = errors.New("dice value out of range")
	ErrNoPendingRoll = errors.New("no in-progress game with a roll awaiting a name")
	ErrEmptyGameName = errors.New("game name is required")
	ErrNothingToDrop = errors.New("no in-progress game to drop")
)

// LastGame returns the most recently appended record.
func LastGame(games []GameRecord) (GameRecord, bool) {
	if len(games) == 0 {
		return GameRecord{}, false
	}
	return games[len(games)-1], true
}

// AttachDice records a roll on the latest in-progress entry that has none,
// or appends a fresh in-progress entry carrying the roll.
func AttachDice(games []GameRecord, value int) ([]GameRecord, error) {
	if value < MinDice || value > MaxDice {
		return games, ErrInvalidDice
	}
	out := append([]GameRecord(nil), games...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Status == StatusInProgress && out[i].Dice == 0 {
			out[i].Dice = value
			return out, nil
		}
	}
	return append(out, GameRecord{Status: StatusInProgress, Dice: value}), nil
}

// AttachGameName names the latest in-progress entry that was rolled but not
// yet named.
func AttachGameName(games []GameRecord, name string) ([]GameRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return games, ErrEmptyGameName
	}
	out := append([]GameRecord(nil), games...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Status == StatusInProgress && out[i].Dice != 0 && out[i].Name == "" {
			out[i].Name = name
			return out, nil
		}
	}
	return games, ErrNoPendingRoll
}

// DropCurrent marks the latest in-progress entry as dropped and stamps the
// penalty sentinel on it.
func DropCurrent(games []GameRecord, comment string) ([]GameRecord, error) {
	out := append([]GameRecord(nil), games...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Status == StatusInProgress {
			out[i].Status = StatusDropped
			out[i].Dice = DropPenaltyDice
			if comment != "" {
				out[i].Comment = comment
			}
			return out, nil
		}
	}
	return games, ErrNothingToDrop
}

func PenaltyApplied(record GameRecord) bool {
	return record.Status == StatusDropped && record.Dice == DropPenaltyDice
}
