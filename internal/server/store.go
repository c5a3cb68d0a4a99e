package server

import (
	"errors"
	"sync"

	"board-tracker/internal/board"
)

var ErrEntityNotFound = errors.New("player not found")

// Store is the authoritative record of every entity and the current user.
// Writes are last-write-wins per field.
type Store struct {
	mu       sync.Mutex
	entities map[int]*board.Entity
	user     *board.User
}

func NewStore() *Store {
	return &Store{
		entities: make(map[int]*board.Entity),
	}
}

// Restore replaces the roster wholesale. Used at boot.
func (s *Store) Restore(entities []board.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = make(map[int]*board.Entity, len(entities))
	for _, entity := range entities {
		clone := entity.Clone()
		if clone.SocialLinks == nil {
			clone.SocialLinks = board.EmptySocialLinks()
		}
		if clone.Games == nil {
			clone.Games = []board.GameRecord{}
		}
		s.entities[clone.ID] = &clone
	}
}

func (s *Store) AllEntities() []board.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]board.Entity, 0, len(s.entities))
	for _, entity := range s.entities {
		list = append(list, entity.Clone())
	}
	board.SortByPosition(list)
	return list
}

func (s *Store) Entity(id int) (board.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entity, ok := s.entities[id]
	if !ok {
		return board.Entity{}, false
	}
	return entity.Clone(), true
}

func (s *Store) FindByName(name string) (board.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entity := range s.entities {
		if equalFoldTrim(entity.Name, name) {
			return entity.Clone(), true
		}
	}
	return board.Entity{}, false
}

// UpdateEntity runs update on a copy of entity id and commits the copy only
// when update succeeds.
func (s *Store) UpdateEntity(id int, update func(entity *board.Entity) error) (board.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entity, ok := s.entities[id]
	if !ok {
		return board.Entity{}, ErrEntityNotFound
	}
	working := entity.Clone()
	if err := update(&working); err != nil {
		return board.Entity{}, err
	}
	s.entities[id] = &working
	return working.Clone(), nil
}

func (s *Store) CurrentUser() (board.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return board.User{}, false
	}
	return *s.user, true
}

func (s *Store) SetCurrentUser(user board.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
}

func (s *Store) ClearCurrentUser() (board.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return board.User{}, false
	}
	previous := *s.user
	s.user = nil
	return previous, true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entities)
}
