package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulachik/postcraft/internal/pipeline"
)

func TestHub_Publish(t *testing.T) {
	h := NewHub()
	a := h.subscribe("b1")
	other := h.subscribe("b2")
	assert.Equal(t, 1, h.Subscribers("b1"))

	h.Publish(pipeline.Event{Type: pipeline.EventSegmentDone, BatchID: "b1", SegmentID: 2, Status: "completed", Completed: 1, Total: 3})

	require.Len(t, a.send, 1)
	var got pipeline.Event
	require.NoError(t, json.Unmarshal(<-a.send, &got))
	assert.Equal(t, 2, got.SegmentID)
	assert.Equal(t, 3, got.Total)
	assert.Empty(t, other.send)
}

func TestHub_TerminalEventClosesSubscribers(t *testing.T) {
	h := NewHub()
	s := h.subscribe("b1")

	h.Publish(pipeline.Event{Type: pipeline.EventBatchCompleted, BatchID: "b1", Completed: 3, Total: 3})

	msg, ok := <-s.send
	require.True(t, ok)
	assert.Contains(t, string(msg), pipeline.EventBatchCompleted)
	_, ok = <-s.send
	assert.False(t, ok)
	assert.Equal(t, 0, h.Subscribers("b1"))

	// unsubscribing after the hub closed the channel is a no-op
	assert.NotPanics(t, func() { h.unsubscribe(s) })
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	h := NewHub()
	s := h.subscribe("b1")

	for i := 0; i < clientBuffer+10; i++ {
		h.Publish(pipeline.Event{Type: pipeline.EventSegmentDone, BatchID: "b1", SegmentID: i})
	}
	assert.Len(t, s.send, clientBuffer)
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub()
	s := h.subscribe("b1")
	h.unsubscribe(s)

	assert.Equal(t, 0, h.Subscribers("b1"))
	_, ok := <-s.send
	assert.False(t, ok)

	// publishing with nobody listening is fine
	assert.NotPanics(t, func() {
		h.Publish(pipeline.Event{Type: pipeline.EventSegmentDone, BatchID: "b1"})
	})
}
