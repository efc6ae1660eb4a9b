package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySinkStampsEvents(t *testing.T) {
	sink := NewMemorySink()
	err := sink.Emit(context.Background(), Event{
		Action:    ActionIntervalCreated,
		SubjectID: "emp-1",
		Details:   map[string]string{"zone": "FR"},
	})
	require.NoError(t, err)

	events := sink.Events()
	require.Len(t, events, 1)
	assert.NotZero(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, "FR", events[0].Details["zone"])
}

func TestMemorySinkByAction(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()
	require.NoError(t, sink.Emit(ctx, Event{Action: ActionIntervalCreated}))
	require.NoError(t, sink.Emit(ctx, Event{Action: ActionViolationDetected}))
	require.NoError(t, sink.Emit(ctx, Event{Action: ActionIntervalCreated}))

	assert.Len(t, sink.ByAction(ActionIntervalCreated), 2)
	assert.Len(t, sink.ByAction(ActionViolationDetected), 1)
	assert.Empty(t, sink.ByAction(ActionForecastHorizonExceeded))
}
