// Package sheet persists registration records in a single worksheet. The
// worksheet is the system of record: once a row is appended the registration
// exists regardless of what later notification steps do.
package sheet

import (
	"context"
	"errors"
	"time"
)

// Status is the processing state stored in the last column of a row.
type Status string

const (
	// StatusPending is set at append time, before the admin notification.
	StatusPending Status = "pending"
	// StatusProcessed means the admin notification went out.
	StatusProcessed Status = "processed"
	// StatusFailed means the admin notification could not be delivered.
	StatusFailed Status = "failed"
	// StatusCanceled is set by the cancel command.
	StatusCanceled Status = "canceled"
)

var (
	// ErrUnavailable covers connectivity and auth failures against the
	// worksheet. Callers abort the attempt: no reply may confirm a row that
	// was never persisted.
	ErrUnavailable = errors.New("sheet: storage unavailable")
	// ErrSchemaMismatch means the worksheet columns do not match Header.
	ErrSchemaMismatch = errors.New("sheet: worksheet schema mismatch")
	// ErrNotFound means no row carries the requested sequence number.
	ErrNotFound = errors.New("sheet: record not found")
)

// Header is the expected first row of the worksheet, columns A through E.
var Header = []string{"Seq", "UserID", "DisplayName", "RegisteredAt", "Status"}

// TimeLayout is how RegisteredAt is rendered into column D.
const TimeLayout = "2006-01-02 15:04:05"

// Record is one registration row.
type Record struct {
	Sequence     int
	UserID       string
	DisplayName  string
	RegisteredAt time.Time
	Status       Status
}

// Accessor is the worksheet contract the registration service depends on.
// Implementations do not serialize LastSequence against Append; the
// read-then-append allocation race is owned by the caller (see DESIGN.md).
type Accessor interface {
	// LastSequence returns the highest assigned sequence number, 0 when the
	// worksheet has no data rows.
	LastSequence(ctx context.Context) (int, error)
	// Append writes one record after the last data row.
	Append(ctx context.Context, rec Record) error
	// FindBySequence returns the record whose first column matches seq.
	FindBySequence(ctx context.Context, seq int) (*Record, error)
	// UpdateStatus rewrites the status cell of the row whose first column
	// matches seq.
	UpdateStatus(ctx context.Context, seq int, status Status) error
	// Ping verifies the worksheet is reachable.
	Ping(ctx context.Context) error
}
