package credential

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seen struct {
	mu     sync.Mutex
	values []string
}

func (s *seen) add(v string) {
	s.mu.Lock()
	s.values = append(s.values, v)
	s.mu.Unlock()
}

func (s *seen) get() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.values...)
}

func runWatch(t *testing.T, store Store, interval time.Duration) *seen {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.Cleanup(func() {
		cancel()
		<-done
	})

	logger, _ := logtest.NewNullLogger()
	s := &seen{}
	go func() {
		defer close(done)
		Watch(ctx, store, interval, logger, s.add)
	}()
	return s
}

func TestWatch_FileStore(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "credential"))
	require.NoError(t, err)
	ctx := context.Background()

	s := runWatch(t, store, 10*time.Millisecond)
	require.Eventually(t, func() bool { return len(s.get()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{""}, s.get())

	require.NoError(t, store.Save(ctx, "first"))
	require.Eventually(t, func() bool { return len(s.get()) == 2 }, time.Second, 5*time.Millisecond)

	// Unchanged value is not reported again.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, s.get(), 2)

	require.NoError(t, store.Save(ctx, "second"))
	require.NoError(t, store.Clear(ctx))
	require.Eventually(t, func() bool {
		v := s.get()
		return len(v) >= 3 && v[len(v)-1] == ""
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "first", s.get()[1])
}

func TestWatch_RedisStorePushesChanges(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "initial"))

	// Poll interval far beyond the test's wait: only the push can deliver.
	s := runWatch(t, store, time.Hour)
	require.Eventually(t, func() bool { return len(s.get()) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Save(ctx, "rotated"))
	require.Eventually(t, func() bool { return len(s.get()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"initial", "rotated"}, s.get())

	require.NoError(t, store.Clear(ctx))
	require.Eventually(t, func() bool { return len(s.get()) == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "", s.get()[2])
}
