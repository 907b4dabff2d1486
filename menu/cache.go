package menu

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

var (
	// ErrInvalidRating is returned for ratings outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrUpstreamUnavailable wraps row-store fetch failures.
	ErrUpstreamUnavailable = errors.New("row store unavailable")
)

// Cache holds the last-fetched snapshot of the Menu and Staff tables.
// Refreshes are serialized behind a single writer; readers always see a
// fully-formed snapshot because the pointer is swapped, never mutated.
type Cache struct {
	store RowStore
	ttl   time.Duration
	loc   *time.Location
	now   func() time.Time

	refreshMu sync.Mutex // serializes refreshes, never held by readers

	mu   sync.RWMutex
	snap *Snapshot
}

// NewCache creates a cache over the given row store. The TTL bounds how
// long external sheet edits can remain invisible to new conversations.
func NewCache(store RowStore, ttl time.Duration, loc *time.Location) *Cache {
	if loc == nil {
		loc = time.UTC
	}
	return &Cache{
		store: store,
		ttl:   ttl,
		loc:   loc,
		now:   time.Now,
	}
}

// Refresh unconditionally pulls both tables and replaces the snapshot.
// A staff fetch failure degrades to an empty staff set; a menu fetch
// failure is fatal to the whole refresh, since the persona has no usable
// grounding without menu data.
func (c *Cache) Refresh(ctx context.Context) error {
	menuRows, err := c.store.FetchMenu(ctx)
	if err != nil {
		return fmt.Errorf("%w: fetch menu: %v", ErrUpstreamUnavailable, err)
	}

	staffRows, err := c.store.FetchStaff(ctx)
	if err != nil {
		log.Printf("⚠️ Staff sheet read failed, using empty list: %v", err)
		staffRows = nil
	}

	snap := &Snapshot{
		Menu:      menuRows,
		Staff:     staffRows,
		FetchedAt: c.now(),
	}

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	log.Printf("Refreshed: %d menu items, %d staff", len(menuRows), len(staffRows))
	return nil
}

// RefreshIfStale refreshes only when the snapshot is older than the TTL.
// Concurrent callers are serialized; the second caller re-checks age and
// becomes a no-op when the first already refreshed.
func (c *Cache) RefreshIfStale(ctx context.Context) error {
	if !c.stale() {
		return nil
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if !c.stale() {
		return nil
	}
	return c.Refresh(ctx)
}

func (c *Cache) stale() bool {
	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()

	if snap == nil {
		return true
	}
	return c.now().Sub(snap.FetchedAt) > c.ttl
}

// Snapshot returns the current snapshot, which may be nil before the
// first successful refresh.
func (c *Cache) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// ActiveItems returns menu rows currently flagged as served, in sheet order.
func (c *Cache) ActiveItems() []MenuRow {
	snap := c.Snapshot()
	if snap == nil {
		return nil
	}

	var active []MenuRow
	for _, item := range snap.Menu {
		if item.Active {
			active = append(active, item)
		}
	}
	return active
}

// WorkingStaff returns staff rows currently flagged as on shift.
func (c *Cache) WorkingStaff() []StaffRow {
	snap := c.Snapshot()
	if snap == nil {
		return nil
	}

	var working []StaffRow
	for _, s := range snap.Staff {
		if s.OnShift {
			working = append(working, s)
		}
	}
	return working
}

// FindMentioned returns every active menu item whose name appears in the
// given text, case-insensitively. Overlapping names may all match; the UI
// uses the result to show menu cards for dishes the reply referenced.
func (c *Cache) FindMentioned(text string) []MenuRow {
	lower := strings.ToLower(text)

	var mentioned []MenuRow
	for _, item := range c.ActiveItems() {
		if item.Name == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(item.Name)) {
			mentioned = append(mentioned, item)
		}
	}
	return mentioned
}

// SaveRating validates and appends a customer rating to the Ratings sheet.
func (c *Cache) SaveRating(ctx context.Context, rating, messageCount int, lang string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}

	rec := RatingRecord{
		Timestamp:    c.now().In(c.loc),
		Rating:       rating,
		MessageCount: messageCount,
		Lang:         lang,
	}
	if err := c.store.AppendRating(ctx, rec); err != nil {
		return fmt.Errorf("%w: append rating: %v", ErrUpstreamUnavailable, err)
	}

	log.Printf("Rating saved: %d stars", rating)
	return nil
}
