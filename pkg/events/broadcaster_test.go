package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_SubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	assert.Equal(t, 2, b.Count())

	b.Unsubscribe(ch1)
	assert.Equal(t, 1, b.Count())

	b.Unsubscribe(ch2)
	assert.Equal(t, 0, b.Count())
}

func TestBroadcaster_UnsubscribeTwice(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()

	b.Unsubscribe(ch)
	// A second unsubscribe of the same channel is a no-op
	b.Unsubscribe(ch)
	assert.Equal(t, 0, b.Count())
}

func TestBroadcaster_Publish(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{
		Type:      TypeFileUploaded,
		FileID:    "file-1",
		Name:      "essay.pdf",
		Timestamp: time.Now(),
	})

	select {
	case received := <-ch:
		assert.Equal(t, TypeFileUploaded, received.Type)
		assert.Equal(t, "file-1", received.FileID)
		assert.False(t, received.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBroadcaster_MultipleSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	defer b.Unsubscribe(ch1)
	defer b.Unsubscribe(ch2)

	b.Publish(Event{Type: TypeFileDeleted, FileID: "file-2"})

	for _, ch := range []chan Event{ch1, ch2} {
		select {
		case received := <-ch:
			assert.Equal(t, "file-2", received.FileID)
		case <-time.After(time.Second):
			t.Fatal("subscriber timed out")
		}
	}
}

func TestBroadcaster_DropsForSlowConsumer(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Overrun the subscriber buffer; Publish must never block
	for range [subscriberBuffer + 36]struct{}{} {
		b.Publish(Event{Type: TypeFolderCreated, FolderID: "overflow"})
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
			continue
		default:
		}
		break
	}
	require.Equal(t, subscriberBuffer, count)
}
