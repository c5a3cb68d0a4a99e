// Package client keeps one session's copy of the board in step with the
// server: the Agent applies pushed deltas and periodic resyncs, and the
// Controller drives drag gestures on top of the same View.
package client

import (
	"sync"

	"board-tracker/internal/board"
)

// View is a session's local copy of the board. Positions are read through an
// override table first, so an in-progress drag renders from the locally
// authoritative value instead of the synced one.
type View struct {
	mu        sync.Mutex
	entities  map[int]board.Entity
	loaded    bool
	overrides map[int]board.Point
	locked    int
	user      *board.User
}

func NewView() *View {
	return &View{
		entities:  make(map[int]board.Entity),
		overrides: make(map[int]board.Point),
	}
}

// Loaded reports whether a full collection has been applied yet.
func (v *View) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

func (v *View) Entities() []board.Entity {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.entitiesLocked()
}

func (v *View) entitiesLocked() []board.Entity {
	list := make([]board.Entity, 0, len(v.entities))
	for _, entity := range v.entities {
		list = append(list, entity.Clone())
	}
	board.SortByPosition(list)
	return list
}

func (v *View) Entity(id int) (board.Entity, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	entity, ok := v.entities[id]
	if !ok {
		return board.Entity{}, false
	}
	return entity.Clone(), true
}

// SyncedPoint is the last position received from the store, ignoring any
// local override.
func (v *View) SyncedPoint(id int) (board.Point, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	entity, ok := v.entities[id]
	if !ok {
		return board.Point{}, false
	}
	return entity.Point()
}

// Rendered resolves where the entity is drawn: override, then synced
// position, then the fallback grid cell for its list index.
func (v *View) Rendered(id int) (board.Point, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p, ok := v.overrides[id]; ok {
		return p, true
	}
	entity, ok := v.entities[id]
	if !ok {
		return board.Point{}, false
	}
	if p, ok := entity.Point(); ok {
		return p, true
	}
	for i, candidate := range v.entitiesLocked() {
		if candidate.ID == id {
			return board.FallbackPosition(i), true
		}
	}
	return board.Point{}, false
}

func (v *View) User() (board.User, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.user == nil {
		return board.User{}, false
	}
	return *v.user, true
}

func (v *View) SetUser(user board.User, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !ok {
		v.user = nil
		return
	}
	v.user = &user
}

// Lock takes the session's single drag slot for id.
func (v *View) Lock(id int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.locked != 0 && v.locked != id {
		return false
	}
	v.locked = id
	return true
}

func (v *View) Unlock(id int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.locked == id {
		v.locked = 0
	}
}

func (v *View) IsLocked(id int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.locked != 0 && v.locked == id
}

func (v *View) LockedID() (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.locked, v.locked != 0
}

func (v *View) SetOverride(id int, p board.Point) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.overrides[id] = p
}

func (v *View) Override(id int) (board.Point, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	p, ok := v.overrides[id]
	return p, ok
}

func (v *View) ClearOverride(id int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.overrides, id)
}

// Commit folds a local position into the synced copy and drops the
// override, so the entity keeps rendering where the user left it.
func (v *View) Commit(id int, p board.Point) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.overrides, id)
	if entity, ok := v.entities[id]; ok {
		entity.SetPoint(p)
		v.entities[id] = entity
	}
}

// ApplyCoordinates updates the synced position unless the entity is under
// local drag control. It reports whether the update was applied.
func (v *View) ApplyCoordinates(id int, x, y float64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.locked == id {
		return false
	}
	entity, ok := v.entities[id]
	if !ok {
		return false
	}
	entity.SetPoint(board.Point{X: x, Y: y})
	v.entities[id] = entity
	return true
}

// ApplyProfile merges the present, changed fields of patch. Position fields
// are never touched.
func (v *View) ApplyProfile(id int, patch board.Patch) (board.Patch, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	entity, ok := v.entities[id]
	if !ok {
		return board.Patch{}, false
	}
	changed := patch.Apply(&entity)
	v.entities[id] = entity
	return changed, true
}

// ReplaceAll swaps in an authoritative collection. The entity under drag
// keeps its local position.
func (v *View) ReplaceAll(entities []board.Entity) {
	v.mu.Lock()
	defer v.mu.Unlock()
	next := make(map[int]board.Entity, len(entities))
	for _, entity := range entities {
		clone := entity.Clone()
		if v.locked != 0 && clone.ID == v.locked {
			if current, ok := v.entities[clone.ID]; ok {
				clone.X, clone.Y = current.X, current.Y
			}
		}
		next[clone.ID] = clone
	}
	v.entities = next
	v.loaded = true
}

// ApplyBatch replaces the collection on first load. Later batches merge per
// entity with profile semantics and only move entities that are not under
// drag.
func (v *View) ApplyBatch(entities []board.Entity) bool {
	v.mu.Lock()
	loaded := v.loaded
	v.mu.Unlock()
	if !loaded {
		v.ReplaceAll(entities)
		return true
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, incoming := range entities {
		existing, ok := v.entities[incoming.ID]
		if !ok {
			v.entities[incoming.ID] = incoming.Clone()
			continue
		}
		board.ProfileOf(incoming).Apply(&existing)
		if p, ok := incoming.Point(); ok && v.locked != incoming.ID {
			existing.SetPoint(p)
		}
		v.entities[incoming.ID] = existing
	}
	return false
}
