package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Enqueue(distinctId string, event string, properties map[string]any) error {
	args := m.Called(distinctId, event, properties)
	return args.Error(0)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := n.Notify(context.Background(), []string{"B", "C"}, "Alice paid €300.0", domain.NotifyExpenseAdded)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Ledger notification", line["msg"])
	assert.Equal(t, "EXPENSE_ADDED", line["category"])
	assert.Equal(t, []any{"B", "C"}, line["recipients"])
}

func TestPosthogNotifier_OneCapturePerRecipient(t *testing.T) {
	q := new(mockQueue)
	props := map[string]any{"category": "SPLIT_SETTLED", "message": "settled"}
	q.On("Enqueue", "A", notificationEvent, props).Return(nil).Once()
	q.On("Enqueue", "B", notificationEvent, props).Return(errors.New("queue full")).Once()
	q.On("Enqueue", "C", notificationEvent, props).Return(nil).Once()

	err := NewPosthogNotifier(q).Notify(context.Background(), []string{"A", "B", "C"}, "settled", domain.NotifySplitSettled)

	assert.ErrorContains(t, err, "recipient B: queue full")
	q.AssertExpectations(t)
}

type stubNotifier struct {
	err   error
	calls int
}

func (s *stubNotifier) Notify(ctx context.Context, recipientIDs []string, message string, category domain.NotificationCategory) error {
	s.calls++
	return s.err
}

func TestFanout(t *testing.T) {
	failing := &stubNotifier{err: errors.New("sink down")}
	ok := &stubNotifier{}

	err := Fanout{failing, ok}.Notify(context.Background(), []string{"A"}, "reset", domain.NotifyBalancesReset)

	assert.ErrorContains(t, err, "sink down")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls, "a failing sink must not stop the others")

	assert.NoError(t, Fanout{}.Notify(context.Background(), []string{"A"}, "reset", domain.NotifyBalancesReset))
}
