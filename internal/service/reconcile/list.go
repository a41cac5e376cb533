package reconcile

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// List is the server-held copy of a rendered collection. Views seed it on
// load and mutations edit it so the response reflects the reconciled state.
type List[T any] struct {
	mu     sync.Mutex
	items  []T
	id     func(T) string
	seeded bool
}

// NewList builds an empty, unseeded list.
func NewList[T any](id func(T) string) *List[T] {
	return &List[T]{id: id}
}

// Replace swaps the contents with a freshly fetched collection.
func (l *List[T]) Replace(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append([]T(nil), items...)
	l.seeded = true
}

// Seeded reports whether a view has loaded the list at least once.
func (l *List[T]) Seeded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seeded
}

// Snapshot returns a copy of the current items.
func (l *List[T]) Snapshot() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append(make([]T, 0, len(l.items)), l.items...)
}

// Find returns the item with id.
func (l *List[T]) Find(id string) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(id); i >= 0 {
		return l.items[i], true
	}
	var zero T
	return zero, false
}

// Remove drops the item with id. The returned func puts it back at its
// former position; it is a no-op when nothing was removed.
func (l *List[T]) Remove(id string) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexOf(id)
	if i < 0 {
		return func() {}
	}
	removed := l.items[i]
	l.items = append(l.items[:i:i], l.items[i+1:]...)
	return func() { l.insertAt(i, removed) }
}

// RemoveWhere drops every item for which match returns true.
func (l *List[T]) RemoveWhere(match func(T) bool) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	type removedItem struct {
		index int
		item  T
	}
	var removed []removedItem
	kept := make([]T, 0, len(l.items))
	for i, item := range l.items {
		if match(item) {
			removed = append(removed, removedItem{index: i, item: item})
			continue
		}
		kept = append(kept, item)
	}
	l.items = kept
	return func() {
		for _, r := range removed {
			l.insertAt(r.index, r.item)
		}
	}
}

// Update replaces the item with id by fn(item). The returned func restores
// the previous value if the item is still present.
func (l *List[T]) Update(id string, fn func(T) T) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexOf(id)
	if i < 0 {
		return func() {}
	}
	previous := l.items[i]
	l.items[i] = fn(previous)
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if j := l.indexOf(id); j >= 0 {
			l.items[j] = previous
		}
	}
}

func (l *List[T]) insertAt(i int, item T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.indexOf(l.id(item)) >= 0 {
		return
	}
	if i > len(l.items) {
		i = len(l.items)
	}
	l.items = append(l.items, item)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = item
}

func (l *List[T]) indexOf(id string) int {
	for i, item := range l.items {
		if l.id(item) == id {
			return i
		}
	}
	return -1
}

// Registry keeps one List per view key, evicting the least recently used
// entry once its capacity is exceeded.
type Registry struct {
	mu    sync.Mutex
	lists *lru.Cache[string, any]
}

// NewRegistry constructs a Registry. maxEntries <= 0 defaults to 1024.
func NewRegistry(maxEntries int) *Registry {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	lists, _ := lru.New[string, any](maxEntries)
	return &Registry{lists: lists}
}

// ListFor returns the list registered under key, creating it when absent.
func ListFor[T any](r *Registry, key string, id func(T) string) *List[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.lists.Get(key); ok {
		if list, ok := v.(*List[T]); ok {
			return list
		}
	}
	list := NewList(id)
	r.lists.Add(key, list)
	return list
}

// Forget drops the list under key.
func (r *Registry) Forget(key string) {
	r.lists.Remove(key)
}

// Len returns the number of registered lists.
func (r *Registry) Len() int {
	return r.lists.Len()
}
