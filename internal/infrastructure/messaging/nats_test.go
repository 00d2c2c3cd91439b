package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/core/id"
	"partsledger/internal/infrastructure/storage/postgres"
)

type published struct {
	subject string
	data    []byte
	opts    int
}

type fakeStream struct {
	sent []published
	err  error
}

func (f *fakeStream) Publish(_ context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, published{subject: subject, data: data, opts: len(opts)})
	return &jetstream.PubAck{Stream: "PARTSLEDGER", Sequence: uint64(len(f.sent))}, nil
}

func TestRelay_PublishesOnEventSubject(t *testing.T) {
	js := &fakeStream{}
	r := NewRelay(js, "partsledger.")

	msg := &postgres.OutboxMessage{
		ID:        id.New(),
		EventType: "batch.approved",
		Payload:   []byte(`{"type":"batch.approved"}`),
	}
	require.NoError(t, r.Handle(context.Background(), msg))

	require.Len(t, js.sent, 1)
	assert.Equal(t, "partsledger.batch.approved", js.sent[0].subject)
	assert.JSONEq(t, `{"type":"batch.approved"}`, string(js.sent[0].data))
	assert.Equal(t, 1, js.sent[0].opts, "message id option")
}

func TestRelay_PropagatesPublishError(t *testing.T) {
	r := NewRelay(&fakeStream{err: errors.New("no responders")}, "partsledger")

	err := r.Handle(context.Background(), &postgres.OutboxMessage{ID: id.New(), EventType: "job.closed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "partsledger.job.closed")
}
