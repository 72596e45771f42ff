package document

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStore_SetBumpsVersion(t *testing.T) {
	s := NewStore("start")
	require.Equal(t, Document{Text: "start", Version: 0}, s.Get())

	s.Set("next")
	require.Equal(t, Document{Text: "next", Version: 1}, s.Get())

	// Identical text still counts as a mutation.
	s.Set("next")
	require.Equal(t, uint64(2), s.Get().Version)

	s.Set("")
	require.Equal(t, "", s.Get().Text)
}

func TestStore_SubscribeAndUnsubscribe(t *testing.T) {
	s := NewStore("")

	var got []Document
	unsubscribe := s.Subscribe(func(d Document) { got = append(got, d) })

	s.Set("a")
	s.Set("ab")
	unsubscribe()
	unsubscribe()
	s.Set("abc")

	require.Equal(t, []Document{{Text: "a", Version: 1}, {Text: "ab", Version: 2}}, got)
}

func TestStore_ListenersRunInOrderAndMayRead(t *testing.T) {
	s := NewStore("")
	var order []string
	s.Subscribe(func(d Document) {
		require.Equal(t, d, s.Get())
		order = append(order, "first")
	})
	s.Subscribe(func(Document) { order = append(order, "second") })

	s.Set("x")
	require.Equal(t, []string{"first", "second"}, order)
}

func TestStore_ConcurrentSetsAreObservedInVersionOrder(t *testing.T) {
	s := NewStore("")

	var mu sync.Mutex
	var versions []uint64
	s.Subscribe(func(d Document) {
		mu.Lock()
		versions = append(versions, d.Version)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				s.Set("x")
			}
		}()
	}
	wg.Wait()

	require.Len(t, versions, 200)
	for i, v := range versions {
		require.Equal(t, uint64(i+1), v)
	}
}

func TestStore_Watch(t *testing.T) {
	s := NewStore("")
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := s.Watch(ctx)

	s.Set("hello")
	select {
	case ev := <-ch:
		require.Equal(t, "hello", ev.Payload.Text)
		require.Equal(t, uint64(1), ev.Payload.Version)
	case <-time.After(time.Second):
		require.FailNow(t, "timeout waiting for update")
	}
}
