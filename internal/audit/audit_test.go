package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type captureExecer struct {
	sql  string
	args []any
	err  error
}

func (c *captureExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.sql = sql
	c.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), c.err
}

func TestRecordWritesThroughExecer(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	rec := NewPgxRecorder(nil, zap.New(core))
	q := &captureExecer{}

	e := &Entry{ActorID: "admin-1", ActorRole: "admin", Action: ActionDeleted, BookingID: "b-1", Detail: "duplicate"}
	require.NoError(t, rec.Record(context.Background(), q, e))

	_, err := uuid.Parse(e.ID)
	assert.NoError(t, err)
	assert.False(t, e.CreatedAt.IsZero())
	assert.Contains(t, q.sql, "INSERT INTO public.audit_logs")
	require.Len(t, q.args, 7)
	assert.Equal(t, ActionDeleted, q.args[3])
	assert.Equal(t, "b-1", q.args[4])

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "audit entry staged", logs.All()[0].Message)
}

func TestRecordPropagatesExecError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	rec := NewPgxRecorder(nil, zap.New(core))
	q := &captureExecer{err: errors.New("connection reset")}

	err := rec.Record(context.Background(), q, &Entry{Action: ActionCancelled, BookingID: "b-2"})
	assert.ErrorContains(t, err, "insert audit entry failed")
	assert.Zero(t, logs.Len())
}
