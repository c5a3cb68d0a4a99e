package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"board-tracker/internal/board"
	"board-tracker/internal/db"

	"github.com/jackc/pgconn"
)

var rosterNames = []string{"Ada", "Bram", "Cleo", "Dario", "Edda", "Finn", "Greta", "Hugo"}

func defaultRoster() []board.Entity {
	roster := make([]board.Entity, 0, len(rosterNames))
	for i, name := range rosterNames {
		roster = append(roster, board.Entity{
			ID:          i + 1,
			Name:        name,
			SocialLinks: board.EmptySocialLinks(),
			Games:       []board.GameRecord{},
			Position:    i + 1,
		})
	}
	return roster
}

// LoadRoster fills the store from the database, seeding the fixed roster on
// first boot. Without a database the roster lives in memory only.
func (s *Server) LoadRoster() error {
	if s.db == nil {
		s.store.Restore(defaultRoster())
		return nil
	}
	var records []db.Player
	if err := s.db.Order("position asc, id asc").Find(&records).Error; err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	if len(records) == 0 {
		if err := s.seedRoster(); err != nil {
			return err
		}
		if err := s.db.Order("position asc, id asc").Find(&records).Error; err != nil {
			return fmt.Errorf("reload players: %w", err)
		}
	}
	entities := make([]board.Entity, 0, len(records))
	for _, record := range records {
		entity, err := entityFromRecord(record)
		if err != nil {
			return fmt.Errorf("decode player id=%d: %w", record.ID, err)
		}
		entities = append(entities, entity)
	}
	s.store.Restore(entities)

	var session db.Session
	if err := s.db.Where("id = ?", db.CurrentSessionID).Limit(1).Find(&session).Error; err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if user, ok := userFromSession(session); ok {
		s.store.SetCurrentUser(user)
	}
	log.Printf("roster loaded players=%d", len(entities))
	return nil
}

func (s *Server) seedRoster() error {
	for _, entity := range defaultRoster() {
		record, err := recordFromEntity(entity)
		if err != nil {
			return err
		}
		if err := s.db.Create(&record).Error; err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return fmt.Errorf("seed player %s: %w", entity.Name, err)
		}
	}
	log.Printf("roster seeded players=%d", len(rosterNames))
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func entityFromRecord(record db.Player) (board.Entity, error) {
	entity := board.Entity{
		ID:       int(record.ID),
		Name:     record.Name,
		Avatar:   record.Avatar,
		IsOnline: record.IsOnline,
		Position: record.Position,
		X:        record.X,
		Y:        record.Y,
	}
	if len(record.SocialLinks) > 0 {
		if err := json.Unmarshal(record.SocialLinks, &entity.SocialLinks); err != nil {
			return entity, err
		}
	}
	if len(record.Games) > 0 {
		if err := json.Unmarshal(record.Games, &entity.Games); err != nil {
			return entity, err
		}
	}
	return entity, nil
}

func recordFromEntity(entity board.Entity) (db.Player, error) {
	links := entity.SocialLinks
	if links == nil {
		links = board.EmptySocialLinks()
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return db.Player{}, err
	}
	games := entity.Games
	if games == nil {
		games = []board.GameRecord{}
	}
	gamesJSON, err := json.Marshal(games)
	if err != nil {
		return db.Player{}, err
	}
	return db.Player{
		ID:          uint(entity.ID),
		Name:        entity.Name,
		Avatar:      entity.Avatar,
		SocialLinks: linksJSON,
		Games:       gamesJSON,
		IsOnline:    entity.IsOnline,
		Position:    entity.Position,
		X:           entity.X,
		Y:           entity.Y,
	}, nil
}

func userFromSession(session db.Session) (board.User, bool) {
	if session.ID == 0 || session.Role == "" {
		return board.User{}, false
	}
	user := board.User{Name: session.UserName, Role: board.Role(session.Role)}
	if session.UserID != nil {
		user.ID = int(*session.UserID)
	}
	return user, user.Role.Valid()
}
