package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"balancete/internal/cache"
)

// Tabs scopes sessions per tab. Each tab has a random id and its own marker;
// markers of idle tabs expire after the configured ttl.
type Tabs struct {
	markers *cache.LRUCache[string]
}

func NewTabs(maxTabs int, ttl time.Duration) *Tabs {
	return &Tabs{markers: cache.NewLRUCache[string](maxTabs, ttl)}
}

// Cleaner exposes the marker cache for periodic sweeping.
func (t *Tabs) Cleaner() cache.Cleaner {
	return t.markers
}

// Open starts a new tab with no one logged in.
func (t *Tabs) Open() *Tab {
	return &Tab{id: uuid.NewString(), tabs: t}
}

// Attach returns the tab with the given id. An unknown or malformed id gets
// a fresh tab.
func (t *Tabs) Attach(id string) *Tab {
	if _, err := uuid.Parse(id); err != nil {
		return t.Open()
	}
	return &Tab{id: id, tabs: t}
}

// Tab is the Storage of one tab.
type Tab struct {
	id   string
	tabs *Tabs
}

var _ Storage = (*Tab)(nil)

func (t *Tab) ID() string { return t.id }

func (t *Tab) key() string { return Key + ":" + t.id }

func (t *Tab) Get(context.Context) (string, bool, error) {
	marker, ok := t.tabs.markers.Get(t.key())
	return marker, ok, nil
}

func (t *Tab) Set(_ context.Context, marker string) error {
	t.tabs.markers.Set(t.key(), marker)
	return nil
}

func (t *Tab) Clear(context.Context) error {
	t.tabs.markers.Delete(t.key())
	return nil
}
