package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_Publish(t *testing.T) {
	t.Run("should deliver typed payload to subscribers in order", func(t *testing.T) {
		// given
		bus := NewEventBus()
		var received []string
		SubscribeTyped[EntryDecided](bus, EntryDecidedType, func(e EventT[EntryDecided]) error {
			received = append(received, "first:"+e.Data.Decision)
			return nil
		})
		SubscribeTyped[EntryDecided](bus, EntryDecidedType, func(e EventT[EntryDecided]) error {
			received = append(received, "second:"+e.Data.Decision)
			return nil
		})

		// when
		err := bus.Publish(NewEvent(context.Background(), EntryDecidedType, EntryDecided{EntryId: 1, Decision: "approved"}))

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"first:approved", "second:approved"}, received)
	})

	t.Run("should collect handler errors and recover panics", func(t *testing.T) {
		// given
		bus := NewEventBus()
		calls := 0
		bus.Subscribe(EntryDecidedType, func(e Event) error {
			calls++
			return errors.New("mail server down")
		})
		bus.Subscribe(EntryDecidedType, func(e Event) error {
			calls++
			panic("unexpected")
		})
		bus.Subscribe(EntryDecidedType, func(e Event) error {
			calls++
			return nil
		})

		// when
		err := bus.Publish(NewEvent(context.Background(), EntryDecidedType, EntryDecided{}))

		// then
		assert.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("should skip payloads of another type", func(t *testing.T) {
		// given
		bus := NewEventBus()
		called := false
		SubscribeTyped[EntryDecided](bus, EntryDecidedType, func(e EventT[EntryDecided]) error {
			called = true
			return nil
		})

		// when
		err := bus.Publish(NewEvent(context.Background(), EntryDecidedType, "not a decision"))

		// then
		assert.NoError(t, err)
		assert.False(t, called)
	})

	t.Run("should stop delivering after unsubscribe", func(t *testing.T) {
		// given
		bus := NewEventBus()
		calls := 0
		unsubscribe := bus.Subscribe(EntryDecidedType, func(e Event) error {
			calls++
			return nil
		})
		unsubscribe()

		// when
		err := bus.Publish(NewEvent(context.Background(), EntryDecidedType, EntryDecided{}))

		// then
		assert.NoError(t, err)
		assert.Zero(t, calls)
	})

	t.Run("should refuse cancelled context", func(t *testing.T) {
		bus := NewEventBus()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Error(t, bus.Publish(NewEvent(ctx, EntryDecidedType, EntryDecided{})))
	})
}
