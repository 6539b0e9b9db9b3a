package sheet

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// GoogleAccessor talks to one worksheet through the Sheets v4 API.
type GoogleAccessor struct {
	srv       *sheets.Service
	sheetID   string
	worksheet string

	mu       sync.Mutex
	headerOK bool
}

// NewGoogleAccessor authenticates with a service-account JSON key and binds
// to one worksheet of one spreadsheet.
func NewGoogleAccessor(ctx context.Context, credentialsJSON []byte, sheetID, worksheet string) (*GoogleAccessor, error) {
	cfg, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse sheet credentials: %w", err)
	}
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &GoogleAccessor{srv: srv, sheetID: sheetID, worksheet: worksheet}, nil
}

func (g *GoogleAccessor) rangeOf(cells string) string {
	return fmt.Sprintf("%s!%s", g.worksheet, cells)
}

func (g *GoogleAccessor) LastSequence(ctx context.Context) (int, error) {
	resp, err := g.srv.Spreadsheets.Values.Get(g.sheetID, g.rangeOf("A:A")).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("%w: read sequence column: %v", ErrUnavailable, err)
	}
	last := 0
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		cell := fmt.Sprint(row[0])
		n, err := strconv.Atoi(cell)
		if err != nil {
			if i == 0 {
				// header row
				continue
			}
			return 0, fmt.Errorf("%w: non-numeric sequence cell %q in row %d", ErrSchemaMismatch, cell, i+1)
		}
		if n > last {
			last = n
		}
	}
	return last, nil
}

func (g *GoogleAccessor) Append(ctx context.Context, rec Record) error {
	if err := g.verifyHeader(ctx); err != nil {
		return err
	}
	vr := &sheets.ValueRange{
		Values: [][]interface{}{{
			rec.Sequence,
			rec.UserID,
			rec.DisplayName,
			rec.RegisteredAt.Format(TimeLayout),
			string(rec.Status),
		}},
	}
	_, err := g.srv.Spreadsheets.Values.Append(g.sheetID, g.rangeOf("A:E"), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("%w: append row: %v", ErrUnavailable, err)
	}
	return nil
}

func (g *GoogleAccessor) FindBySequence(ctx context.Context, seq int) (*Record, error) {
	resp, err := g.srv.Spreadsheets.Values.Get(g.sheetID, g.rangeOf("A2:E")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: read rows: %v", ErrUnavailable, err)
	}
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		n, err := strconv.Atoi(fmt.Sprint(row[0]))
		if err != nil || n != seq {
			continue
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, err
		}
		return rec, nil
	}
	return nil, fmt.Errorf("%w: sequence %d", ErrNotFound, seq)
}

func (g *GoogleAccessor) UpdateStatus(ctx context.Context, seq int, status Status) error {
	resp, err := g.srv.Spreadsheets.Values.Get(g.sheetID, g.rangeOf("A:A")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: read sequence column: %v", ErrUnavailable, err)
	}
	rowIdx := 0
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if n, err := strconv.Atoi(fmt.Sprint(row[0])); err == nil && n == seq {
			// 1-based row number in the worksheet
			rowIdx = i + 1
			break
		}
	}
	if rowIdx == 0 {
		return fmt.Errorf("%w: sequence %d", ErrNotFound, seq)
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{{string(status)}}}
	_, err = g.srv.Spreadsheets.Values.Update(g.sheetID, g.rangeOf(fmt.Sprintf("E%d", rowIdx)), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("%w: update status of row %d: %v", ErrUnavailable, rowIdx, err)
	}
	return nil
}

func (g *GoogleAccessor) Ping(ctx context.Context) error {
	_, err := g.srv.Spreadsheets.Get(g.sheetID).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: get spreadsheet: %v", ErrUnavailable, err)
	}
	return nil
}

// verifyHeader checks the first row against Header once per process, writing
// the header into a brand-new worksheet.
func (g *GoogleAccessor) verifyHeader(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.headerOK {
		return nil
	}
	resp, err := g.srv.Spreadsheets.Values.Get(g.sheetID, g.rangeOf("A1:E1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: read header: %v", ErrUnavailable, err)
	}
	if len(resp.Values) == 0 {
		header := make([]interface{}, len(Header))
		for i, h := range Header {
			header[i] = h
		}
		vr := &sheets.ValueRange{Values: [][]interface{}{header}}
		if _, err := g.srv.Spreadsheets.Values.Update(g.sheetID, g.rangeOf("A1:E1"), vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return fmt.Errorf("%w: write header: %v", ErrUnavailable, err)
		}
		g.headerOK = true
		return nil
	}
	got := resp.Values[0]
	if len(got) < len(Header) {
		return fmt.Errorf("%w: header has %d columns, want %d", ErrSchemaMismatch, len(got), len(Header))
	}
	for i, want := range Header {
		if fmt.Sprint(got[i]) != want {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrSchemaMismatch, i+1, got[i], want)
		}
	}
	g.headerOK = true
	return nil
}

func parseRow(row []interface{}) (*Record, error) {
	if len(row) < len(Header) {
		return nil, fmt.Errorf("%w: row has %d columns, want %d", ErrSchemaMismatch, len(row), len(Header))
	}
	seq, err := strconv.Atoi(fmt.Sprint(row[0]))
	if err != nil {
		return nil, fmt.Errorf("%w: non-numeric sequence cell %q", ErrSchemaMismatch, row[0])
	}
	registeredAt, err := time.ParseInLocation(TimeLayout, fmt.Sprint(row[3]), time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: bad timestamp cell %q", ErrSchemaMismatch, row[3])
	}
	return &Record{
		Sequence:     seq,
		UserID:       fmt.Sprint(row[1]),
		DisplayName:  fmt.Sprint(row[2]),
		RegisteredAt: registeredAt,
		Status:       Status(fmt.Sprint(row[4])),
	}, nil
}
