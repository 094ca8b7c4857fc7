package event_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/pkg/event"
)

func TestBusDispatchesToEverySink(t *testing.T) {
	bus := event.NewBus()

	var got []string
	bus.Sink(func(_ context.Context, e event.Event) {
		got = append(got, "first:"+e.Key)
	})
	bus.Sink(func(_ context.Context, e event.Event) {
		got = append(got, "second:"+e.Name)
	})

	bus.Publish(context.Background(), event.UserRegistered, "a@b.c", nil)
	assert.Equal(t, []string{"first:a@b.c", "second:user.registered"}, got)
}

func TestBusWithoutSinks(t *testing.T) {
	assert.NotPanics(t, func() {
		event.NewBus().Publish(context.Background(), event.UserDeleted, "u1", nil)
	})
}

func TestBusSurvivesPanickingSink(t *testing.T) {
	bus := event.NewBus()
	called := false
	bus.Sink(func(context.Context, event.Event) { panic("boom") })
	bus.Sink(func(context.Context, event.Event) { called = true })

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), event.ProductCreated, "p1", nil)
	})
	assert.True(t, called)
}

func TestEncode(t *testing.T) {
	bus := event.NewBus()
	var captured event.Event
	bus.Sink(func(_ context.Context, e event.Event) { captured = e })
	bus.Publish(context.Background(), event.CartItemAdded, "u1", map[string]int{"quantity": 2})

	msg, err := event.Encode(captured)
	require.NoError(t, err)
	assert.Equal(t, []byte("u1"), msg.Key)
	assert.Equal(t, "event", msg.Headers[0].Key)
	assert.Equal(t, []byte(event.CartItemAdded), msg.Headers[0].Value)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "cart.item_added", decoded["event"])
	assert.Equal(t, float64(2), decoded["payload"].(map[string]any)["quantity"])
}
