package matchmaking

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	require.True(t, q.Enqueue("A"))
	require.True(t, q.Enqueue("B"))
	require.True(t, q.Enqueue("C"))

	head, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "A", head)
	assert.Equal(t, []string{"B", "C"}, q.Snapshot())
}

func TestQueue_EnqueueIsIdempotent(t *testing.T) {
	q := NewQueue()
	require.True(t, q.Enqueue("A"))
	assert.False(t, q.Enqueue("A"))
	assert.Equal(t, 1, q.Len())
}

func TestQueue_RemoveLeavesNoResidue(t *testing.T) {
	q := NewQueue()
	q.Enqueue("A")
	q.Enqueue("B")
	require.True(t, q.Remove("A"))
	assert.False(t, q.Remove("A"))
	assert.False(t, q.Contains("A"))

	head, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "B", head)

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestPendingTable(t *testing.T) {
	p := NewPendingTable()
	p.Record("A", "s1")
	p.Record("B", "s2")

	id, ok := p.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, "s1", id)

	p.Record("A", "s3")
	id, _ = p.Lookup("A")
	assert.Equal(t, "s3", id, "a second creation replaces the first")

	p.ClearSession("s2")
	_, ok = p.Lookup("B")
	assert.False(t, ok)

	assert.True(t, p.Clear("A"))
	assert.False(t, p.Clear("A"))
	assert.Equal(t, 0, p.Len())
}

// Property-based tests

func TestPropertyQueueMatchesFIFOModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		q := NewQueue()
		var model []string
		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			player := fmt.Sprintf("p%d", rapid.IntRange(0, 7).Draw(t, "player"))
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				added := q.Enqueue(player)
				if added == slices.Contains(model, player) {
					t.Fatalf("enqueue %q returned %v with model %v", player, added, model)
				}
				if added {
					model = append(model, player)
				}
			case 1:
				head, ok := q.Pop()
				if ok != (len(model) > 0) {
					t.Fatalf("pop ok=%v with model %v", ok, model)
				}
				if ok {
					if head != model[0] {
						t.Fatalf("pop returned %q, want %q", head, model[0])
					}
					model = model[1:]
				}
			case 2:
				removed := q.Remove(player)
				idx := slices.Index(model, player)
				if removed != (idx >= 0) {
					t.Fatalf("remove %q returned %v with model %v", player, removed, model)
				}
				if idx >= 0 {
					model = slices.Delete(model, idx, idx+1)
				}
			}
			if got := q.Snapshot(); !slices.Equal(got, model) {
				t.Fatalf("queue %v diverged from model %v", got, model)
			}
		}
	})
}
