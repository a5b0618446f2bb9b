package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishCallsHandlersInOrder(t *testing.T) {
	bus := NewBus()
	calls := make([]int, 0, 3)

	bus.SubscribeAll(func(_ context.Context, _ Event) error {
		calls = append(calls, 3)
		return nil
	})
	bus.Subscribe(PlayerTeamChanged, func(_ context.Context, _ Event) error {
		calls = append(calls, 1)
		return nil
	})
	bus.Subscribe(PlayerTeamChanged, func(_ context.Context, _ Event) error {
		calls = append(calls, 2)
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), Event{Name: PlayerTeamChanged}))
	assert.Equal(t, []int{1, 2, 3}, calls)
}

func TestBusPublishStopsOnFirstError(t *testing.T) {
	bus := NewBus()
	var calledSecond bool
	expectedErr := errors.New("handler failed")

	bus.Subscribe(PlayerLinkedAccountChanged, func(_ context.Context, _ Event) error {
		return expectedErr
	})
	bus.Subscribe(PlayerLinkedAccountChanged, func(_ context.Context, _ Event) error {
		calledSecond = true
		return nil
	})

	err := bus.Publish(context.Background(), Event{Name: PlayerLinkedAccountChanged})
	assert.ErrorIs(t, err, expectedErr)
	assert.False(t, calledSecond)
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	assert.NoError(t, NewBus().Publish(context.Background(), Event{Name: TeamLoaded}))

	var nilBus *Bus
	assert.NoError(t, nilBus.Publish(context.Background(), Event{Name: TeamLoaded}))
}
