package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaNotifierPublishesKeyedEnvelope(t *testing.T) {
	w := &fakeWriter{}
	n := NewKafkaNotifier(w, zap.NewNop())

	e := NewEvent(BookingCancelled, BookingData{BookingID: "b-1", ConfirmationCode: "RM-12345", Reason: "plans changed"})
	require.NoError(t, n.Notify(context.Background(), e))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("b-1"), w.msgs[0].Key)

	var decoded Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, BookingCancelled, decoded.Type)
	assert.Equal(t, source, decoded.Source)
	assert.Equal(t, "plans changed", decoded.Data.Reason)
	assert.Equal(t, e.ID, decoded.ID)

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

func TestKafkaNotifierWrapsWriteError(t *testing.T) {
	n := NewKafkaNotifier(&fakeWriter{err: errors.New("broker down")}, zap.NewNop())
	err := n.Notify(context.Background(), NewEvent(BookingCreated, BookingData{BookingID: "b-2"}))
	assert.ErrorContains(t, err, "broker down")
}

func TestNewWithoutBrokersLogs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := New(nil, "booking.events", zap.New(core))

	_, ok := n.(*LogNotifier)
	require.True(t, ok)
	require.NoError(t, n.Notify(context.Background(), NewEvent(BookingCreated, BookingData{BookingID: "b-3"})))
	assert.Equal(t, 1, logs.FilterMessage("booking event").Len())
}

func TestWriterFlushesEachEvent(t *testing.T) {
	w := newWriter([]string{"kafka-1:9092", "kafka-2:9092"}, "booking.events")
	defer w.Close()

	assert.Equal(t, "booking.events", w.Topic)
	assert.Equal(t, 1, w.BatchSize)
	assert.LessOrEqual(t, w.BatchTimeout, 10*time.Millisecond)
	assert.False(t, w.Async)
	assert.Equal(t, kafka.RequireOne, w.RequiredAcks)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
}
