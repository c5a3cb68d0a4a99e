package server

import (
	"encoding/json"
	"fmt"
	"time"

	"board-tracker/internal/board"
	"board-tracker/internal/db"

	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

func (s *Server) persistPosition(entity board.Entity) error {
	if s.db == nil {
		return s.persistEvent(&entity.ID, "position_set", EventPayload{PlayerID: entity.ID, X: entity.X, Y: entity.Y})
	}
	if err := s.db.Model(&db.Player{}).Where("id = ?", entity.ID).Updates(map[string]any{
		"x": entity.X,
		"y": entity.Y,
	}).Error; err != nil {
		return fmt.Errorf("persist position: %w", err)
	}
	return s.persistEvent(&entity.ID, "position_set", EventPayload{PlayerID: entity.ID, X: entity.X, Y: entity.Y})
}

func (s *Server) persistProfile(entity board.Entity, changed board.Patch) error {
	if changed.Empty() {
		return nil
	}
	if s.db == nil {
		return s.persistEvent(&entity.ID, "profile_set", EventPayload{PlayerID: entity.ID, Fields: &changed})
	}
	record, err := recordFromEntity(entity)
	if err != nil {
		return err
	}
	if err := s.db.Model(&db.Player{}).Where("id = ?", entity.ID).Updates(map[string]any{
		"name":         record.Name,
		"avatar":       record.Avatar,
		"social_links": record.SocialLinks,
		"games":        record.Games,
		"is_online":    record.IsOnline,
		"position":     record.Position,
	}).Error; err != nil {
		return fmt.Errorf("persist profile: %w", err)
	}
	return s.persistEvent(&entity.ID, "profile_set", EventPayload{PlayerID: entity.ID, Fields: &changed})
}

func (s *Server) persistSession(user *board.User) error {
	eventType := "user_logged_out"
	payload := EventPayload{}
	if user != nil {
		eventType = "user_logged_in"
		payload.Username = user.Name
		payload.Role = string(user.Role)
	}
	if s.db == nil {
		return s.persistEvent(nil, eventType, payload)
	}
	record := db.Session{ID: db.CurrentSessionID}
	if user != nil {
		record.UserName = user.Name
		record.Role = string(user.Role)
		if user.ID > 0 {
			id := uint(user.ID)
			record.UserID = &id
		}
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "user_name", "role", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return s.persistEvent(nil, eventType, payload)
}

func (s *Server) persistEvent(playerID *int, eventType string, payload EventPayload) error {
	s.events.append(playerID, eventType, payload, time.Now())
	if s.db == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	record := db.Event{
		Type:    eventType,
		Payload: datatypes.JSON(data),
	}
	if playerID != nil {
		id := uint(*playerID)
		record.PlayerID = &id
	}
	return s.db.Create(&record).Error
}
