package sheet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(seq int) Record {
	return Record{
		Sequence:     seq,
		UserID:       "U1",
		DisplayName:  "Alice",
		RegisteredAt: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
		Status:       StatusPending,
	}
}

func TestLastSequenceEmpty(t *testing.T) {
	m := NewInMemory()

	last, err := m.LastSequence(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, last)
}

func TestAppendAndFind(t *testing.T) {
	m := NewInMemory()
	ctx := context.Background()

	require.NoError(t, m.Append(ctx, record(1)))
	require.NoError(t, m.Append(ctx, record(2)))

	last, err := m.LastSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, last)

	rec, err := m.FindBySequence(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "U1", rec.UserID)

	_, err = m.FindBySequence(ctx, 3)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	m := NewInMemory()
	ctx := context.Background()
	require.NoError(t, m.Append(ctx, record(1)))

	require.NoError(t, m.UpdateStatus(ctx, 1, StatusProcessed))
	rec, err := m.FindBySequence(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, rec.Status)

	require.ErrorIs(t, m.UpdateStatus(ctx, 9, StatusCanceled), ErrNotFound)
}

func TestFindReturnsCopy(t *testing.T) {
	m := NewInMemory()
	ctx := context.Background()
	require.NoError(t, m.Append(ctx, record(1)))

	rec, err := m.FindBySequence(ctx, 1)
	require.NoError(t, err)
	rec.Status = StatusCanceled

	stored, err := m.FindBySequence(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
}
