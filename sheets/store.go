// Package sheets implements the menu.RowStore contract on top of a
// Google Spreadsheet: the Menu and Staff tabs are fetched wholesale,
// ratings are appended to a Ratings tab created on demand.
package sheets

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/takamineyasuyuki/sumi-x-orator/menu"
)

const (
	menuTab    = "Menu"
	staffTab   = "Staff"
	ratingsTab = "Ratings"
)

var ratingsHeader = []interface{}{"timestamp", "rating", "message_count", "lang"}

// Store is a Google Sheets backed row store.
type Store struct {
	svc     *gsheets.Service
	sheetID string
}

// New connects to the spreadsheet and makes sure the Staff and Ratings
// tabs exist. The Menu tab is required; its absence surfaces on the
// first fetch rather than here, since the tab list is fetched anyway.
func New(ctx context.Context, sheetID string, credentialsJSON []byte) (*Store, error) {
	if sheetID == "" {
		return nil, fmt.Errorf("GOOGLE_SHEET_ID is not set")
	}

	svc, err := gsheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create Sheets client: %w", err)
	}

	s := &Store{svc: svc, sheetID: sheetID}

	if err := s.ensureTab(ctx, staffTab, 4, nil); err != nil {
		return nil, err
	}
	if err := s.ensureTab(ctx, ratingsTab, 4, ratingsHeader); err != nil {
		return nil, err
	}

	log.Printf("Connected to Google Sheet: %s", sheetID)
	return s, nil
}

// FetchMenu pulls the whole Menu tab.
func (s *Store) FetchMenu(ctx context.Context) ([]menu.MenuRow, error) {
	records, err := s.fetchRecords(ctx, menuTab)
	if err != nil {
		return nil, err
	}

	rows := make([]menu.MenuRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, menuRowFromRecord(rec))
	}
	return rows, nil
}

// FetchStaff pulls the whole Staff tab.
func (s *Store) FetchStaff(ctx context.Context) ([]menu.StaffRow, error) {
	records, err := s.fetchRecords(ctx, staffTab)
	if err != nil {
		return nil, err
	}

	rows := make([]menu.StaffRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, staffRowFromRecord(rec))
	}
	return rows, nil
}

// AppendRating appends one rating row to the Ratings tab.
func (s *Store) AppendRating(ctx context.Context, rec menu.RatingRecord) error {
	vr := &gsheets.ValueRange{
		Values: [][]interface{}{{
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.Rating,
			rec.MessageCount,
			rec.Lang,
		}},
	}
	_, err := s.svc.Spreadsheets.Values.Append(s.sheetID, ratingsTab, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", ratingsTab, err)
	}
	return nil
}

func (s *Store) fetchRecords(ctx context.Context, tab string) ([]map[string]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.sheetID, tab).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", tab, err)
	}
	return recordsFromValues(resp.Values), nil
}

// ensureTab creates the named tab (plus optional header row) if the
// spreadsheet does not already have it.
func (s *Store) ensureTab(ctx context.Context, title string, cols int64, header []interface{}) error {
	meta, err := s.svc.Spreadsheets.Get(s.sheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("open spreadsheet: %w", err)
	}
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return nil
		}
	}

	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{
					Title: title,
					GridProperties: &gsheets.GridProperties{
						RowCount:    1000,
						ColumnCount: cols,
					},
				},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.sheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("create %s tab: %w", title, err)
	}

	if header != nil {
		vr := &gsheets.ValueRange{Values: [][]interface{}{header}}
		_, err := s.svc.Spreadsheets.Values.Append(s.sheetID, title, vr).
			ValueInputOption("USER_ENTERED").
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("write %s header: %w", title, err)
		}
	}

	log.Printf("Created %s sheet tab", title)
	return nil
}

// OverwriteMenu replaces the Menu tab contents, header included. Used by
// the seeding utility only.
func (s *Store) OverwriteMenu(ctx context.Context, rows []menu.MenuRow) error {
	values := [][]interface{}{{colActive, colName, colCategory, colChef, colDescription, colAllergens, colPrice}}
	for _, r := range rows {
		active := "FALSE"
		if r.Active {
			active = "TRUE"
		}
		values = append(values, []interface{}{active, r.Name, r.Category, r.Chef, r.Description, r.Allergens, r.Price})
	}
	return s.overwrite(ctx, menuTab, values)
}

// OverwriteStaff replaces the Staff tab contents, header included.
func (s *Store) OverwriteStaff(ctx context.Context, rows []menu.StaffRow) error {
	values := [][]interface{}{{colOnShift, colStaff, colRespect, colTalkTags}}
	for _, r := range rows {
		onShift := "FALSE"
		if r.OnShift {
			onShift = "TRUE"
		}
		values = append(values, []interface{}{onShift, r.Name, r.Respect, r.TalkTags})
	}
	return s.overwrite(ctx, staffTab, values)
}

func (s *Store) overwrite(ctx context.Context, tab string, values [][]interface{}) error {
	clear := gsheets.ClearValuesRequest{}
	if _, err := s.svc.Spreadsheets.Values.Clear(s.sheetID, tab, &clear).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", tab, err)
	}

	vr := &gsheets.ValueRange{Values: values}
	_, err := s.svc.Spreadsheets.Values.Update(s.sheetID, tab+"!A1", vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", tab, err)
	}
	return nil
}
