package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_DrainInOrder(t *testing.T) {
	q := NewQueue()
	q.setCurrent("s1")

	q.Push(Event{Kind: EventProjectMatch, ID: "s1", Project: ProjectMatch{Project: Project{ID: "a"}}})
	q.Push(Event{Kind: EventProjectMatch, ID: "s1", Project: ProjectMatch{Project: Project{ID: "b"}}})
	q.Push(Event{Kind: EventCompleted, ID: "s1", Summary: Summary{FilesMatched: 2}})

	select {
	case <-q.C():
	default:
		t.Fatal("C should be signalled after Push")
	}

	r := &recorder{}
	assert.Equal(t, 3, q.Drain(r))
	require.Len(t, r.projects, 2)
	assert.Equal(t, "a", r.projects[0].Project.ID)
	assert.Equal(t, "b", r.projects[1].Project.ID)
	assert.Equal(t, 1, r.completed)
	assert.Equal(t, 2, r.summary.FilesMatched)
	assert.Zero(t, q.Len())
}

func TestQueue_DropsStaleEvents(t *testing.T) {
	q := NewQueue()
	q.setCurrent("old")
	q.Push(Event{Kind: EventProjectMatch, ID: "old"})

	q.setCurrent("new")
	assert.Zero(t, q.Len(), "switching searches discards pending events")

	q.Push(Event{Kind: EventCompleted, ID: "old"})
	q.Push(Event{Kind: EventCompleted, ID: "new"})

	r := &recorder{}
	assert.Equal(t, 1, q.Drain(r))
	assert.Equal(t, []SearchID{"new"}, r.ids)
}

func TestQueue_NextBlocksUntilPush(t *testing.T) {
	q := NewQueue()
	q.setCurrent("s")

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Push(Event{Kind: EventCompleted, ID: "s"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e, err := q.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, EventCompleted, e.Kind)
}

func TestQueue_NextSkipsStaleAndHonorsContext(t *testing.T) {
	q := NewQueue()
	q.setCurrent("s")
	q.Push(Event{Kind: EventCompleted, ID: "other"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := q.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_NextResignalsRemaining(t *testing.T) {
	q := NewQueue()
	q.setCurrent("s")
	q.Push(Event{Kind: EventProjectMatch, ID: "s"})
	q.Push(Event{Kind: EventCompleted, ID: "s"})

	ctx := context.Background()
	first, err := q.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, EventProjectMatch, first.Kind)

	second, err := q.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, EventCompleted, second.Kind)
}
