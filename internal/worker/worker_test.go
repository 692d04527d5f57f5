package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
	"user_api/internal/observability"
	"user_api/internal/user"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Record(ctx context.Context, event *user.UserEvent) error {
	return m.Called(ctx, event).Error(0)
}

func validEvent() user.UserEvent {
	return user.UserEvent{
		ID:         uuid.NewString(),
		Type:       user.EventCreated,
		UserID:     uuid.NewString(),
		OccurredAt: time.Now().UTC(),
	}
}

func delivery(t *testing.T, v interface{}, headers amqp.Table) *amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return &amqp.Delivery{Body: body, Headers: headers, RoutingKey: "user_events"}
}

func newTestWorker(repo AuditRepositoryInterface) (*Worker, *observability.Metrics) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return NewWorker(1, "user_events", repo, metrics), metrics
}

func TestWorker_Process_RecordsValidEvent(t *testing.T) {
	repo := new(MockAuditRepository)
	w, _ := newTestWorker(repo)
	event := validEvent()

	repo.On("Record", mock.Anything, mock.MatchedBy(func(e *user.UserEvent) bool {
		return e.ID == event.ID && e.UserID == event.UserID && e.Type == user.EventCreated
	})).Return(nil)

	assert.Equal(t, outcomeAck, w.process(context.Background(), delivery(t, event, nil)))
	repo.AssertExpectations(t)
}

func TestWorker_Process_InvalidPayloadIsDropped(t *testing.T) {
	repo := new(MockAuditRepository)
	w, metrics := newTestWorker(repo)

	got := w.process(context.Background(), &amqp.Delivery{Body: []byte("not json")})

	assert.Equal(t, outcomeDrop, got)
	repo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AuditEventsFailed.WithLabelValues("unknown", "invalid_payload")))
}

func TestWorker_Process_RejectsMalformedEvents(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *user.UserEvent)
	}{
		{name: "Unknown type", mutate: func(e *user.UserEvent) { e.Type = "user.exploded" }},
		{name: "Bad event id", mutate: func(e *user.UserEvent) { e.ID = "42" }},
		{name: "Bad user id", mutate: func(e *user.UserEvent) { e.UserID = "" }},
		{name: "Missing timestamp", mutate: func(e *user.UserEvent) { e.OccurredAt = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockAuditRepository)
			w, _ := newTestWorker(repo)

			event := validEvent()
			tt.mutate(&event)

			assert.Equal(t, outcomeDrop, w.process(context.Background(), delivery(t, event, nil)))
			repo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
		})
	}
}

func TestWorker_Process_RetriesUntilLimit(t *testing.T) {
	tests := []struct {
		name    string
		headers amqp.Table
		want    outcome
	}{
		{name: "First failure", headers: nil, want: outcomeRetry},
		{name: "Second retry", headers: amqp.Table{retryHeader: int32(2)}, want: outcomeRetry},
		{name: "Limit reached", headers: amqp.Table{retryHeader: int32(MaxRetries)}, want: outcomeDrop},
		{name: "Limit reached int64", headers: amqp.Table{retryHeader: int64(MaxRetries)}, want: outcomeDrop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockAuditRepository)
			w, metrics := newTestWorker(repo)
			repo.On("Record", mock.Anything, mock.Anything).Return(errors.New("db down"))

			assert.Equal(t, tt.want, w.process(context.Background(), delivery(t, validEvent(), tt.headers)))

			wantFailed := 0.0
			if tt.want == outcomeDrop {
				wantFailed = 1.0
			}
			assert.Equal(t, wantFailed, testutil.ToFloat64(metrics.AuditEventsFailed.WithLabelValues(string(user.EventCreated), "max_retries")))
		})
	}
}

func TestRetryCount(t *testing.T) {
	assert.Equal(t, int32(0), retryCount(nil))
	assert.Equal(t, int32(0), retryCount(amqp.Table{retryHeader: "three"}))
	assert.Equal(t, int32(2), retryCount(amqp.Table{retryHeader: int32(2)}))
	assert.Equal(t, int32(1), retryCount(amqp.Table{retryHeader: int64(1)}))
}
