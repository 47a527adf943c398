package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariellesantos/floracart-backend/pkg/enums"
	"github.com/mariellesantos/floracart-backend/pkg/logger"
	"github.com/mariellesantos/floracart-backend/pkg/outbox"
	"github.com/mariellesantos/floracart-backend/pkg/outbox/idempotency"
	"github.com/mariellesantos/floracart-backend/pkg/outbox/payloads"
)

type fakeIdempotencyStore struct {
	seen   map[string]bool
	setErr error
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{seen: map[string]bool{}}
}

func (f *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	if f.seen[key] {
		return "1", nil
	}
	return "", nil
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if f.setErr != nil {
		return false, f.setErr
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fc:idempotency:%s:%s", scope, id)
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.seen, key)
	}
	return nil
}

type recordingFeed struct {
	Service
	appends []Entry
	users   []uuid.UUID
	err     error
}

func (r *recordingFeed) Append(_ context.Context, userID uuid.UUID, entry Entry) ([]Entry, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.appends = append(r.appends, entry)
	r.users = append(r.users, userID)
	return r.appends, nil
}

func newTestConsumer(t *testing.T, feed Service, store *fakeIdempotencyStore) *Consumer {
	t.Helper()
	manager, err := idempotency.NewManager(store, time.Hour)
	require.NoError(t, err)
	logg := logger.New(logger.Options{ServiceName: "consumer-test", Level: zerolog.ErrorLevel})
	consumer, err := NewConsumer(feed, &pubsub.Subscriber{}, manager, logg, nil)
	require.NoError(t, err)
	return consumer
}

func eventMessage(t *testing.T, eventType enums.OutboxEventType, eventID uuid.UUID, payload any) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	require.NoError(t, err)
	return &pubsub.Message{
		ID:         eventID.String(),
		Data:       envelope,
		Attributes: map[string]string{"event_type": string(eventType)},
	}
}

func TestProcessAppendsOrderPlacedEntry(t *testing.T) {
	feed := &recordingFeed{}
	consumer := newTestConsumer(t, feed, newFakeIdempotencyStore())

	userID := uuid.New()
	eventID := uuid.New()
	msg := eventMessage(t, enums.EventOrderPlaced, eventID, payloads.OrderPlacedEvent{
		OrderID:     uuid.New(),
		OrderNumber: "FC-20260831-0001",
		UserID:      userID,
	})

	result := consumer.process(context.Background(), msg)
	assert.True(t, result.ack)
	require.Len(t, feed.appends, 1)
	assert.Equal(t, userID, feed.users[0])
	assert.Equal(t, eventID, feed.appends[0].ID)
	assert.Equal(t, enums.NotificationTypeOrder, feed.appends[0].Type)
	assert.Equal(t, "/orders/FC-20260831-0001", feed.appends[0].Link)
}

func TestProcessDuplicateEventAcksWithoutAppending(t *testing.T) {
	feed := &recordingFeed{}
	consumer := newTestConsumer(t, feed, newFakeIdempotencyStore())

	msg := eventMessage(t, enums.EventRequestQuoted, uuid.New(), payloads.RequestQuotedEvent{
		RequestNumber: "RQ-20260831-0002",
		UserID:        uuid.New(),
		Kind:          enums.RequestKindBooking,
	})

	first := consumer.process(context.Background(), msg)
	assert.True(t, first.ack)
	second := consumer.process(context.Background(), msg)
	assert.True(t, second.ack)
	assert.Len(t, feed.appends, 1)
}

func TestProcessAppendFailureReleasesIdempotencyKey(t *testing.T) {
	feed := &recordingFeed{err: assert.AnError}
	store := newFakeIdempotencyStore()
	consumer := newTestConsumer(t, feed, store)

	msg := eventMessage(t, enums.EventOrderCancelled, uuid.New(), payloads.OrderCancelledEvent{
		OrderNumber: "FC-20260831-0003",
		UserID:      uuid.New(),
	})

	result := consumer.process(context.Background(), msg)
	assert.True(t, result.nack)
	// key released so redelivery gets a clean retry
	assert.Empty(t, store.seen)
}

func TestProcessSkipsEventsWithoutCustomerTarget(t *testing.T) {
	feed := &recordingFeed{}
	consumer := newTestConsumer(t, feed, newFakeIdempotencyStore())

	msg := eventMessage(t, enums.EventOrderPlaced, uuid.New(), payloads.OrderPlacedEvent{
		OrderNumber: "FC-20260831-0004",
	})

	result := consumer.process(context.Background(), msg)
	assert.True(t, result.ack)
	assert.Empty(t, feed.appends)
}

func TestProcessBadEnvelopeAcks(t *testing.T) {
	feed := &recordingFeed{}
	consumer := newTestConsumer(t, feed, newFakeIdempotencyStore())

	msg := &pubsub.Message{
		ID:         "bad",
		Data:       []byte("{not json"),
		Attributes: map[string]string{"event_type": string(enums.EventOrderPlaced)},
	}

	result := consumer.process(context.Background(), msg)
	assert.True(t, result.ack)
	assert.Empty(t, feed.appends)
}

func TestEntryForEventUnknownTypeYieldsNoTarget(t *testing.T) {
	userID, entry, err := entryForEvent(enums.OutboxEventType("something.else"), json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, userID)
	assert.Empty(t, entry.Title)
}
