package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()

	var seen []string
	d.Subscribe(EventUserRegistered, func(_ context.Context, e Event) error {
		seen = append(seen, "first")
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
		return errors.New("smtp down")
	})
	d.Subscribe(EventUserRegistered, func(context.Context, Event) error {
		seen = append(seen, "second")
		return nil
	})
	d.Subscribe(EventGuestInvited, func(context.Context, Event) error {
		seen = append(seen, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventUserRegistered, SubjectID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Equal(t, []string{"first", "second"}, seen)
}

func TestPublishWithoutListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventDeliveryNoteSigned}))
}
