package server

import (
	"math"
	"strings"
	"sync"

	"board-tracker/internal/board"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	maxGameNameLength = 120
	maxCommentLength  = 500
	maxCoordinate     = 100000
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("coord", func(fl validator.FieldLevel) bool {
			value := fl.Field().Float()
			return !math.IsNaN(value) && !math.IsInf(value, 0) && math.Abs(value) <= maxCoordinate
		})
		_ = engine.RegisterValidation("sociallinks", func(fl validator.FieldLevel) bool {
			links, ok := fl.Field().Interface().(map[string]string)
			if !ok {
				return false
			}
			return board.ValidateSocialLinks(links) == nil
		})
		_ = engine.RegisterValidation("games", func(fl validator.FieldLevel) bool {
			games, ok := fl.Field().Interface().([]board.GameRecord)
			if !ok {
				return false
			}
			return validateGames(games)
		})
		_ = engine.RegisterValidation("avatar", func(fl validator.FieldLevel) bool {
			return avatarValid(fl.Field().String())
		})
		_ = engine.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
}

func validateGames(games []board.GameRecord) bool {
	for _, game := range games {
		if !game.Status.Valid() {
			return false
		}
		if len(game.Name) > maxGameNameLength || len(game.Comment) > maxCommentLength {
			return false
		}
		if game.Dice != 0 && game.Dice != board.DropPenaltyDice && (game.Dice < board.MinDice || game.Dice > board.MaxDice) {
			return false
		}
	}
	return true
}
