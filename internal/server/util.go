package server

import (
	"math/rand/v2"
	"strings"

	"board-tracker/internal/board"
)

func rollDice() int {
	return board.MinDice + rand.IntN(board.MaxDice-board.MinDice+1)
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
