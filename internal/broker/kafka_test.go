package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublishEncodesJSON(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w)

	err := p.Publish(context.Background(), "GST/25-26/001", map[string]string{"event_type": "ChallanIssued"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "GST/25-26/001", string(w.msgs[0].Key))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &body))
	assert.Equal(t, "ChallanIssued", body["event_type"])
}

func TestPublishSurfacesWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&fakeWriter{err: boom})
	assert.ErrorIs(t, p.Publish(context.Background(), "k", 1), boom)
}

func TestPublishRejectsUnencodableValue(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w)
	assert.Error(t, p.Publish(context.Background(), "k", make(chan int)))
	assert.Empty(t, w.msgs)
}
