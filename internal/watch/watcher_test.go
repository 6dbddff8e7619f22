package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcher_HandlesSettledWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	target := filepath.Join(dir, "MatchDashboard.tsx")
	other := filepath.Join(dir, "Other.tsx")
	require.NoError(t, os.WriteFile(target, []byte("a\n"), 0644))
	require.NoError(t, os.WriteFile(other, []byte("a\n"), 0644))

	calls := make(chan string, 16)
	w, err := New([]string{target}, 30*time.Millisecond, func(_ context.Context, path string) error {
		calls <- path
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(other, []byte("b\n"), 0644))
	require.NoError(t, os.WriteFile(target, []byte("b\n"), 0644))

	select {
	case got := <-calls:
		abs, _ := filepath.Abs(target)
		assert.Equal(t, abs, got)
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}

	w.Stop()
	w.Stop() // idempotent

	stats := w.Stats()
	assert.GreaterOrEqual(t, stats.Events, 1)
	assert.GreaterOrEqual(t, stats.Handled, 1)
	for len(calls) > 0 {
		assert.NotEqual(t, other, <-calls)
	}
}

func TestWatcher_HandlerErrorsAreCounted(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	target := filepath.Join(dir, "a.tsx")
	require.NoError(t, os.WriteFile(target, []byte("a\n"), 0644))

	done := make(chan struct{}, 1)
	w, err := New([]string{target}, 10*time.Millisecond, func(context.Context, string) error {
		select {
		case done <- struct{}{}:
		default:
		}
		return errors.New("boom")
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(target, []byte("b\n"), 0644))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}
	w.Stop()

	assert.GreaterOrEqual(t, w.Stats().Errors, 1)
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	target := filepath.Join(t.TempDir(), "a.tsx")
	require.NoError(t, os.WriteFile(target, []byte("a\n"), 0644))

	w, err := New([]string{target}, time.Second, func(context.Context, string) error { return nil })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()

	select {
	case <-w.doneCh:
	case <-time.After(5 * time.Second):
		t.Fatal("event loop did not exit")
	}
	w.Stop()
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, time.Second, func(context.Context, string) error { return nil })
	assert.Error(t, err)

	_, err = New([]string{"a.tsx"}, time.Second, nil)
	assert.Error(t, err)
}

func TestStop_WithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New([]string{filepath.Join(t.TempDir(), "a.tsx")}, time.Second, func(context.Context, string) error { return nil })
	require.NoError(t, err)
	w.Stop()
}
