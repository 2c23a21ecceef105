package ledger

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsStore implements rowsAPI and tabsAPI on top of the Google Sheets v4
// API with a service account. All access is server-side; the spreadsheet is
// never exposed to the browser.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
}

func NewSheetsStore(ctx context.Context, credentialsJSON []byte, spreadsheetID string) (*SheetsStore, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("ledger: init sheets service: %w", err)
	}
	return &SheetsStore{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (s *SheetsStore) Get(ctx context.Context, rng string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	out := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, 0, len(row))
		for _, v := range row {
			cells = append(cells, fmt.Sprint(v))
		}
		out = append(out, cells)
	}
	return out, nil
}

func (s *SheetsStore) Update(ctx context.Context, rng string, values [][]string) error {
	_, err := s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, rng, toValueRange(rng, values)).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (s *SheetsStore) BatchUpdate(ctx context.Context, writes []ValueWrite) error {
	data := make([]*sheets.ValueRange, 0, len(writes))
	for _, w := range writes {
		data = append(data, toValueRange(w.Range, w.Values))
	}
	_, err := s.svc.Spreadsheets.Values.
		BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateValuesRequest{
			ValueInputOption: "RAW",
			Data:             data,
		}).
		Context(ctx).
		Do()
	return err
}

func (s *SheetsStore) Append(ctx context.Context, rng string, values [][]string) error {
	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, rng, toValueRange(rng, values)).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (s *SheetsStore) Titles(ctx context.Context) ([]string, error) {
	meta, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(meta.Sheets))
	for _, sh := range meta.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

func (s *SheetsStore) Add(ctx context.Context, titles []string) error {
	reqs := make([]*sheets.Request, 0, len(titles))
	for _, t := range titles {
		reqs = append(reqs, &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: t},
			},
		})
	}
	_, err := s.svc.Spreadsheets.
		BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).
		Do()
	return err
}

func toValueRange(rng string, values [][]string) *sheets.ValueRange {
	vals := make([][]interface{}, 0, len(values))
	for _, row := range values {
		cells := make([]interface{}, 0, len(row))
		for _, c := range row {
			cells = append(cells, c)
		}
		vals = append(vals, cells)
	}
	return &sheets.ValueRange{Range: rng, Values: vals}
}
