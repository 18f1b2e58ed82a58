package membership

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mergington-activities/internal/common/config"
	"mergington-activities/internal/common/database"
	apperrors "mergington-activities/internal/common/errors"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/metrics"
)

func fixedEvent(t EventType) Event {
	return Event{
		ID:         "3f1c2a9e-0000-4000-8000-000000000001",
		Type:       t,
		Activity:   "Chess Club",
		Email:      "emma@mergington.edu",
		Schedule:   "Fridays, 3:30 PM - 5:00 PM",
		OccurredAt: time.Date(2024, 9, 2, 15, 30, 0, 0, time.UTC),
	}
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent(EventSignup, "Chess Club", "a@b")
	assert.Len(t, evt.ID, 36)
	assert.Equal(t, EventSignup, evt.Type)
	assert.WithinDuration(t, time.Now().UTC(), evt.OccurredAt, time.Second)
	assert.NotEqual(t, evt.ID, NewEvent(EventSignup, "Chess Club", "a@b").ID)

	data, err := fixedEvent(EventUnregister).JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "3f1c2a9e-0000-4000-8000-000000000001",
		"type": "unregister",
		"activity": "Chess Club",
		"email": "emma@mergington.edu",
		"schedule": "Fridays, 3:30 PM - 5:00 PM",
		"occurred_at": "2024-09-02T15:30:00Z"
	}`, string(data))
}

// --- audit ---

func TestAuditSink(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sink := NewAuditSink(database.NewPostgresFromDB(db))
	evt := fixedEvent(EventSignup)

	dbMock.ExpectExec(`CREATE TABLE IF NOT EXISTS audit_log`).WillReturnResult(sqlmock.NewResult(0, 0))
	dbMock.ExpectExec(`INSERT INTO audit_log \(event_type, resource_type, resource_id, details, created_at\)`).
		WithArgs("signup", "activity", "Chess Club",
			`{"email":"emma@mergington.edu","eventId":"3f1c2a9e-0000-4000-8000-000000000001"}`,
			evt.OccurredAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, sink.EnsureSchema(context.Background()))
	require.NoError(t, sink.Handle(context.Background(), evt))
	assert.Equal(t, "audit", sink.Name())
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestAuditSink_InsertError(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dbMock.ExpectExec(`INSERT INTO audit_log`).WillReturnError(errors.New("connection reset"))

	err = NewAuditSink(database.NewPostgresFromDB(db)).Handle(context.Background(), fixedEvent(EventUnregister))
	require.Error(t, err)
	stdErr := apperrors.Normalize(err)
	assert.Equal(t, apperrors.ErrCodeAuditInsertFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Details, "connection reset")
}

func TestAuditSink_SchemaError(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dbMock.ExpectExec(`CREATE TABLE IF NOT EXISTS audit_log`).WillReturnError(errors.New("permission denied"))

	err = NewAuditSink(database.NewPostgresFromDB(db)).EnsureSchema(context.Background())
	require.Error(t, err)
	stdErr := apperrors.Normalize(err)
	assert.Equal(t, apperrors.ErrCodeAuditSchemaFailed, stdErr.Code)
	assert.Equal(t, "Audit log schema setup failed", stdErr.Message)
	assert.Contains(t, stdErr.Details, "permission denied")
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

// --- redis ---

func TestRedisPublisher_Miniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Client.Subscribe(ctx, "activities.membership")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub := NewRedisPublisher(client, "activities.membership")
	require.NoError(t, pub.Handle(ctx, fixedEvent(EventSignup)))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, fixedEvent(EventSignup), got)
}

func TestRedisPublisher_Error(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	evt := fixedEvent(EventSignup)
	payload, err := evt.JSON()
	require.NoError(t, err)

	redisMock.ExpectPublish("activities.membership", payload).SetErr(errors.New("READONLY"))

	err = NewRedisPublisher(database.NewRedisFromClient(rdb), "activities.membership").Handle(context.Background(), evt)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeEventPublishFailed, apperrors.Normalize(err).Code)
	assert.Contains(t, apperrors.Normalize(err).Details, "redis:activities.membership")
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

// --- sns / ses ---

type mockTopic struct{ mock.Mock }

func (m *mockTopic) Publish(ctx context.Context, message string, attrs map[string]string) (string, error) {
	args := m.Called(ctx, message, attrs)
	return args.String(0), args.Error(1)
}

type mockEmail struct{ mock.Mock }

func (m *mockEmail) SendText(ctx context.Context, to, subject, body string) (string, error) {
	args := m.Called(ctx, to, subject, body)
	return args.String(0), args.Error(1)
}

func TestSNSPublisher(t *testing.T) {
	evt := fixedEvent(EventUnregister)
	payload, _ := evt.JSON()

	topic := &mockTopic{}
	topic.On("Publish", mock.Anything, string(payload), map[string]string{
		"eventType": "unregister",
		"activity":  "Chess Club",
	}).Return("id-1", nil).Once()
	topic.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("AuthorizationError")).Once()

	pub := NewSNSPublisher(topic)
	require.NoError(t, pub.Handle(context.Background(), evt))

	err := pub.Handle(context.Background(), evt)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeEventPublishFailed, apperrors.Normalize(err).Code)
	topic.AssertExpectations(t)
}

func TestNotifier(t *testing.T) {
	sender := &mockEmail{}
	sender.On("SendText", mock.Anything, "emma@mergington.edu", "You're signed up for Chess Club",
		mock.MatchedBy(func(body string) bool {
			return strings.Contains(body, "signed up for Chess Club") &&
				strings.Contains(body, "Schedule: Fridays, 3:30 PM - 5:00 PM")
		})).Return("ses-1", nil).Once()

	n := NewNotifier(sender)
	require.NoError(t, n.Handle(context.Background(), fixedEvent(EventSignup)))

	// unregister and empty addresses send nothing
	require.NoError(t, n.Handle(context.Background(), fixedEvent(EventUnregister)))
	blank := fixedEvent(EventSignup)
	blank.Email = "  "
	require.NoError(t, n.Handle(context.Background(), blank))

	sender.AssertExpectations(t)
	sender.AssertNumberOfCalls(t, "SendText", 1)
}

func TestNotifier_SendError(t *testing.T) {
	sender := &mockEmail{}
	sender.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("MessageRejected"))

	err := NewNotifier(sender).Handle(context.Background(), fixedEvent(EventSignup))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, apperrors.Normalize(err).Code)
}

// --- dispatcher ---

type recordingSink struct {
	name string
	err  error

	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Handle(_ context.Context, evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestDispatcher_DeliverContinuesPastFailures(t *testing.T) {
	failing := &recordingSink{name: "failing-test-sink", err: errors.New("boom")}
	ok := &recordingSink{name: "ok"}
	d := NewDispatcher(logger.NewTestLogger(t), time.Second, failing, ok)

	before := testutil.ToFloat64(metrics.HookFailuresTotal.WithLabelValues("failing-test-sink"))

	failed := d.Deliver(context.Background(), fixedEvent(EventSignup))
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, ok.count())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HookFailuresTotal.WithLabelValues("failing-test-sink")))
	assert.Equal(t, []string{"failing-test-sink", "ok"}, d.Sinks())
}

func TestDispatcher_DispatchAndWait(t *testing.T) {
	sink := &recordingSink{name: "rec"}
	d := NewDispatcher(logger.NewNoOpLogger(), 0)
	d.Add(sink)

	for i := 0; i < 10; i++ {
		d.Dispatch(NewEvent(EventSignup, "Gym Class", "x@y"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Wait(ctx))
	assert.Equal(t, 10, sink.count())
}

func TestDispatcher_NoSinks(t *testing.T) {
	var nilDispatcher *Dispatcher
	assert.NotPanics(t, func() { nilDispatcher.Dispatch(fixedEvent(EventSignup)) })

	d := NewDispatcher(logger.NewNoOpLogger(), time.Second)
	d.Dispatch(fixedEvent(EventSignup))
	assert.NoError(t, d.Wait(context.Background()))
}
