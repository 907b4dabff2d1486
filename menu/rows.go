package menu

import (
	"context"
	"time"
)

// MenuRow is one row of the Menu sheet. Rows are read-only from this
// service's perspective; the sheet owner edits them out of band.
type MenuRow struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Chef        string  `json:"chef,omitempty"`
	Description string  `json:"description,omitempty"`
	Allergens   string  `json:"allergens,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Active      bool    `json:"active"`
}

// StaffRow is one row of the Staff sheet.
type StaffRow struct {
	Name     string `json:"name"`
	OnShift  bool   `json:"on_shift"`
	Respect  string `json:"respect,omitempty"`
	TalkTags string `json:"talk_tags,omitempty"`
}

// RatingRecord is one appended row of the Ratings sheet.
type RatingRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Rating       int       `json:"rating"`
	MessageCount int       `json:"message_count"`
	Lang         string    `json:"lang"`
}

// Snapshot is the pair of sheet tables captured by one refresh. It is
// immutable once produced; the cache replaces it wholesale so readers
// never observe a half-updated set.
type Snapshot struct {
	Menu      []MenuRow
	Staff     []StaffRow
	FetchedAt time.Time
}

// RowStore is the external spreadsheet seen as a row store. Both tables
// are fetched wholesale; ratings are append-only.
type RowStore interface {
	FetchMenu(ctx context.Context) ([]MenuRow, error)
	FetchStaff(ctx context.Context) ([]StaffRow, error)
	AppendRating(ctx context.Context, rec RatingRecord) error
}
