package lesson

import "sync"

// View is the in-memory ordered collection of lessons for one owner. It holds
// exactly the rows most recently confirmed by the repository, ordered
// most-recently-updated first as the repository returned them. Mutations swap
// the backing slice wholesale, so readers always observe a full snapshot and
// never a partially-applied change.
type View struct {
	mu    sync.RWMutex
	items []Lesson
}

// NewView creates an empty view.
func NewView() *View {
	return &View{}
}

// Snapshot returns a copy of the current collection.
func (v *View) Snapshot() []Lesson {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Lesson, len(v.items))
	copy(out, v.items)
	return out
}

// Len returns the current collection size.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.items)
}

// ReplaceAll swaps in a full refresh from the repository, replacing ordering
// and contents wholesale.
func (v *View) ReplaceAll(items []Lesson) {
	next := make([]Lesson, len(items))
	copy(next, items)

	v.mu.Lock()
	v.items = next
	v.mu.Unlock()
}

// InsertOne prepends a single confirmed record. Any stale entry with the
// same id is dropped first so ids stay unique.
func (v *View) InsertOne(l Lesson) {
	v.mu.Lock()
	defer v.mu.Unlock()

	next := make([]Lesson, 0, len(v.items)+1)
	next = append(next, l)
	for i := range v.items {
		if v.items[i].ID != l.ID {
			next = append(next, v.items[i])
		}
	}
	v.items = next
}

// ApplyUpdate replaces the record matching l's id in place, preserving
// collection order. It returns false when the id is absent; callers should
// treat that as a reportable inconsistency.
func (v *View) ApplyUpdate(l Lesson) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i := range v.items {
		if v.items[i].ID == l.ID {
			next := make([]Lesson, len(v.items))
			copy(next, v.items)
			next[i] = l
			v.items = next
			return true
		}
	}
	return false
}

// RemoveOne removes the record with the given id, if present.
func (v *View) RemoveOne(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i := range v.items {
		if v.items[i].ID == id {
			next := make([]Lesson, 0, len(v.items)-1)
			next = append(next, v.items[:i]...)
			next = append(next, v.items[i+1:]...)
			v.items = next
			return true
		}
	}
	return false
}

// Cache holds one view per owner. Views are created lazily and discarded
// wholesale on sign-out so a returning principal starts from a fresh load.
type Cache struct {
	mu    sync.Mutex
	views map[string]*View
}

// NewCache creates an empty view cache.
func NewCache() *Cache {
	return &Cache{views: make(map[string]*View)}
}

// For returns the view for an owner, creating it if needed.
func (c *Cache) For(ownerID string) *View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.views[ownerID]
	if !ok {
		v = NewView()
		c.views[ownerID] = v
	}
	return v
}

// Discard drops the owner's view entirely.
func (c *Cache) Discard(ownerID string) {
	c.mu.Lock()
	delete(c.views, ownerID)
	c.mu.Unlock()
}
