package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/fleetintake/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, idle time.Duration) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStore(idle, logger, WithClock(clock.Now)), clock
}

func TestStore_DoCreatesSession(t *testing.T) {
	store, clock := newTestStore(t, time.Minute)

	var got *domain.Session
	err := store.Do("s1", func(s *domain.Session) error {
		got = s
		return nil
	})

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, clock.Now(), got.StartedAt)
	assert.Equal(t, domain.ScreenForm, got.Screen())
	assert.True(t, store.Exists("s1"))
	assert.Equal(t, 1, store.Len())
}

func TestStore_DoReturnsCallbackError(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)

	err := store.Do("s1", func(s *domain.Session) error {
		return s.NewIntake()
	})

	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)

	require.NoError(t, store.Do("a", func(s *domain.Session) error {
		return s.EditField(domain.FieldVehicleNumber, "A-1")
	}))
	require.NoError(t, store.Do("b", func(s *domain.Session) error {
		return s.EditField(domain.FieldVehicleNumber, "B-2")
	}))

	_ = store.Do("a", func(s *domain.Session) error {
		assert.Equal(t, "A-1", s.Form().VehicleNumber)
		return nil
	})
	_ = store.Do("b", func(s *domain.Session) error {
		assert.Equal(t, "B-2", s.Form().VehicleNumber)
		return nil
	})
}

func TestStore_ActivityKeepsSessionAlive(t *testing.T) {
	store, clock := newTestStore(t, time.Minute)
	require.NoError(t, store.Do("s1", func(s *domain.Session) error {
		return s.EditField(domain.FieldIssue, "noise")
	}))

	clock.Advance(50 * time.Second)
	require.NoError(t, store.Do("s1", func(*domain.Session) error { return nil }))
	clock.Advance(50 * time.Second)

	assert.True(t, store.Exists("s1"))
	_ = store.Do("s1", func(s *domain.Session) error {
		assert.Equal(t, "noise", s.Form().Issue)
		return nil
	})
}

func TestStore_ExpiredSessionStartsBlank(t *testing.T) {
	store, clock := newTestStore(t, time.Minute)
	require.NoError(t, store.Do("s1", func(s *domain.Session) error {
		return s.EditField(domain.FieldIssue, "noise")
	}))

	clock.Advance(2 * time.Minute)

	assert.False(t, store.Exists("s1"))
	_ = store.Do("s1", func(s *domain.Session) error {
		assert.Equal(t, domain.NewIntakeForm(), s.Form())
		assert.Equal(t, clock.Now(), s.StartedAt)
		return nil
	})
}

func TestStore_Sweep(t *testing.T) {
	store, clock := newTestStore(t, time.Minute)
	require.NoError(t, store.Do("old", func(*domain.Session) error { return nil }))
	clock.Advance(45 * time.Second)
	require.NoError(t, store.Do("new", func(*domain.Session) error { return nil }))
	clock.Advance(30 * time.Second)

	removed := store.Sweep()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())
	assert.False(t, store.Exists("old"))
	assert.True(t, store.Exists("new"))
}

func TestStore_Delete(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	require.NoError(t, store.Do("s1", func(*domain.Session) error { return nil }))

	store.Delete("s1")

	assert.False(t, store.Exists("s1"))
	assert.Equal(t, 0, store.Len())
}

func TestStore_ConcurrentEditsAreSerialised(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Do("shared", func(s *domain.Session) error {
				return s.EditField(domain.FieldIssue, s.Form().Issue+"x")
			})
		}()
	}
	wg.Wait()

	_ = store.Do("shared", func(s *domain.Session) error {
		assert.Len(t, s.Form().Issue, 50)
		return nil
	})
}

func TestStore_RunStopsOnCancel(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- store.Run(ctx, 10*time.Millisecond)
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestContextID(t *testing.T) {
	ctx := WithID(context.Background(), "abc")

	assert.Equal(t, "abc", IDFromContext(ctx))
	assert.Empty(t, IDFromContext(context.Background()))
}
