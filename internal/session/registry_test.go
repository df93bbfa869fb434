package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lifecycle(t *testing.T) {
	var counts []int
	r := NewRegistry(func(n int) { counts = append(counts, n) })

	r.Add("a", "stdio")
	r.Add("b", "http")
	assert.Equal(t, 2, r.Len())

	info, ok := r.Get("b")
	require.True(t, ok)
	assert.Equal(t, "http", info.Transport)

	assert.True(t, r.Remove("a"))
	assert.False(t, r.Remove("a"))
	assert.Equal(t, 1, r.Len())

	_, ok = r.Get("a")
	assert.False(t, ok)
	assert.Equal(t, []int{1, 2, 1}, counts)
}

func TestRegistry_EmptyIDGetsUUID(t *testing.T) {
	r := NewRegistry(nil)
	id, inserted := r.Add("", "stdio")
	assert.True(t, inserted)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	_, ok := r.Get(id)
	assert.True(t, ok)
}

func TestRegistry_DuplicateKeepsFirst(t *testing.T) {
	var counts []int
	r := NewRegistry(func(n int) { counts = append(counts, n) })
	_, inserted := r.Add("s", "stdio")
	assert.True(t, inserted)
	id, inserted := r.Add("s", "http")
	assert.Equal(t, "s", id)
	assert.False(t, inserted)

	info, _ := r.Get("s")
	assert.Equal(t, "stdio", info.Transport)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []int{1}, counts)
}

func TestRegistry_ListOrder(t *testing.T) {
	r := NewRegistry(nil)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	r.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	r.Add("late", "http")
	r.Add("later", "http")
	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "late", list[0].ID)
	assert.Equal(t, "later", list[1].ID)
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s-%d", i)
			r.Add(id, "http")
			_, _ = r.Get(id)
			_ = r.Len()
			if i%2 == 0 {
				r.Remove(id)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 25, r.Len())
}
