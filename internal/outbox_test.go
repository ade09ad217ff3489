package internal

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxKeepsOrder(t *testing.T) {
	box := newOutbox()
	for i := 0; i < 1000; i++ {
		require.True(t, box.Push(Message{Type: Text{}, Text: fmt.Sprint(i)}))
	}
	assert.Equal(t, 1000, box.Len())
	box.Close(nil)

	for i := 0; i < 1000; i++ {
		msg, ok, err := box.Pop(context.Background())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, fmt.Sprint(i), msg.Text)
	}

	_, ok, err := box.Pop(context.Background())
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestOutboxPushAfterCloseIsDropped(t *testing.T) {
	box := newOutbox()
	box.Close(nil)
	assert.False(t, box.Push(Message{Type: Text{}}))
	assert.Zero(t, box.Len())
}

func TestOutboxCloseError(t *testing.T) {
	box := newOutbox()
	box.Push(Message{Type: Text{}, Text: "queued"})
	box.Close(ErrInput)
	box.Close(nil)

	msg, ok, err := box.Pop(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "queued", msg.Text)

	_, ok, err = box.Pop(context.Background())
	assert.False(t, ok)
	assert.True(t, errors.Is(err, ErrInput))
}

func TestOutboxPopWaitsForPush(t *testing.T) {
	box := newOutbox()
	got := make(chan Message, 1)
	go func() {
		msg, _, _ := box.Pop(context.Background())
		got <- msg
	}()

	select {
	case <-got:
		t.Fatal("Pop returned before anything was pushed")
	case <-time.After(50 * time.Millisecond):
	}

	box.Push(Message{Type: Text{}, Text: "late"})
	select {
	case msg := <-got:
		assert.Equal(t, "late", msg.Text)
	case <-time.After(messageTimeout):
		t.Fatal("Pop did not wake up")
	}
}

func TestOutboxPopHonoursContext(t *testing.T) {
	box := newOutbox()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := box.Pop(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}
