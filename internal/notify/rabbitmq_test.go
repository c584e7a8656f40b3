package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gocial/backend/internal/model"
)

type fakeAck struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (a *fakeAck) Ack(uint64, bool) error { a.acked = true; return nil }

func (a *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *fakeAck) Reject(_ uint64, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func TestConsumer_HandleMessage(t *testing.T) {
	event := Event{UserID: uuid.New(), Type: model.NotifActivityReminder, Title: "Starting soon"}
	body, err := json.Marshal(event)
	require.NoError(t, err)

	tests := []struct {
		name        string
		body        []byte
		redelivered bool
		sinkErr     error
		wantAck     bool
		wantRequeue bool
		wantEvents  int
	}{
		{name: "valid message is stored and acked", body: body, wantAck: true, wantEvents: 1},
		{name: "malformed body is dropped", body: []byte("{"), wantAck: false, wantRequeue: false},
		{name: "sink failure requeues once", body: body, sinkErr: errors.New("db down"), wantRequeue: true, wantEvents: 1},
		{name: "second failure drops", body: body, redelivered: true, sinkErr: errors.New("db down"), wantRequeue: false, wantEvents: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{err: tt.sinkErr}
			c := &Consumer{sink: sink, logger: zap.NewNop()}
			ack := &fakeAck{}

			c.handleMessage(context.Background(), amqp.Delivery{
				Acknowledger: ack,
				Body:         tt.body,
				Redelivered:  tt.redelivered,
			})

			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, !tt.wantAck, ack.nacked)
			assert.Equal(t, tt.wantRequeue, ack.requeued)
			assert.Len(t, sink.Events(), tt.wantEvents)
			if tt.wantEvents == 1 {
				assert.Equal(t, event.UserID, sink.Events()[0].UserID)
			}
		})
	}
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "notification.participation_request", RoutingKey(model.NotifParticipationRequest))
}
