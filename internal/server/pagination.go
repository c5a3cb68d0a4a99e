package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"board-tracker/internal/db"

	"github.com/gin-gonic/gin"
)

const (
	defaultEventsPerPage = 50
	maxEventsPerPage     = 200
)

type pageInfo struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"perPage"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasPrev    bool `json:"hasPrev"`
	HasNext    bool `json:"hasNext"`
}

type eventsPage struct {
	Events []Event  `json:"events"`
	Page   pageInfo `json:"page"`
}

func parsePagination(c *gin.Context, defaultPerPage, maxPerPage int) (int, int) {
	page := 1
	perPage := defaultPerPage
	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			page = value
		}
	}
	if raw := strings.TrimSpace(c.Query("per_page")); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			perPage = value
		}
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

func buildPageInfo(page, perPage, total int) pageInfo {
	if perPage <= 0 {
		perPage = 1
	}
	totalPages := max((total+perPage-1)/perPage, 1)
	info := pageInfo{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
	info.HasPrev = page > 1
	info.HasNext = page < totalPages
	return info
}

type eventsQuery struct {
	PlayerID int `form:"player_id" binding:"omitempty,min=1"`
}

// handleListEvents pages through the mutation log, newest first.
func (s *Server) handleListEvents(c *gin.Context) {
	var query eventsQuery
	if !bindQuery(c, &query) {
		return
	}
	page, perPage := parsePagination(c, defaultEventsPerPage, maxEventsPerPage)
	offset := (page - 1) * perPage

	var (
		events []Event
		total  int
	)
	if s.db == nil {
		events, total = s.events.page(query.PlayerID, offset, perPage)
	} else {
		var err error
		events, total, err = s.loadEvents(query.PlayerID, offset, perPage)
		if err != nil {
			log.Printf("list events failed error=%v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load events"})
			return
		}
	}
	c.JSON(http.StatusOK, eventsPage{Events: events, Page: buildPageInfo(page, perPage, total)})
}

func (s *Server) loadEvents(playerID, offset, limit int) ([]Event, int, error) {
	query := s.db.Model(&db.Event{})
	if playerID > 0 {
		query = query.Where("player_id = ?", playerID)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	var records []db.Event
	if err := query.Order("id desc").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("load events: %w", err)
	}
	events := make([]Event, 0, len(records))
	for _, record := range records {
		event := Event{ID: int64(record.ID), Type: record.Type, CreatedAt: record.CreatedAt}
		if record.PlayerID != nil {
			id := int(*record.PlayerID)
			event.PlayerID = &id
		}
		if err := json.Unmarshal(record.Payload, &event.Payload); err != nil {
			return nil, 0, fmt.Errorf("decode event id=%d: %w", record.ID, err)
		}
		events = append(events, event)
	}
	return events, int(total), nil
}
