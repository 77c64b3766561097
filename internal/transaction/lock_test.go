package transaction

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireTargetLock(t *testing.T) {
	t.Run("creates lock file next to target", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "kubectl")

		lock, err := AcquireTargetLock(context.Background(), target)
		if err != nil {
			t.Fatalf("AcquireTargetLock failed: %v", err)
		}
		defer lock.Release()

		if lock.Path() != target+LockSuffix {
			t.Errorf("lock path = %s, want %s", lock.Path(), target+LockSuffix)
		}
		data, err := os.ReadFile(lock.Path())
		if err != nil {
			t.Fatalf("failed to read lock file: %v", err)
		}
		if len(data) == 0 {
			t.Error("lock file should contain metadata")
		}
	})

	t.Run("prevents concurrent locks", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "helm")

		lock1, err := AcquireTargetLock(context.Background(), target)
		if err != nil {
			t.Fatalf("first AcquireTargetLock failed: %v", err)
		}
		defer lock1.Release()

		_, err = AcquireTargetLock(context.Background(), target)
		if err != ErrLockExists {
			t.Errorf("expected ErrLockExists, got %v", err)
		}
	})

	t.Run("different targets do not conflict", func(t *testing.T) {
		dir := t.TempDir()

		lock1, err := AcquireTargetLock(context.Background(), filepath.Join(dir, "a"))
		if err != nil {
			t.Fatalf("AcquireTargetLock(a) failed: %v", err)
		}
		defer lock1.Release()

		lock2, err := AcquireTargetLock(context.Background(), filepath.Join(dir, "b"))
		if err != nil {
			t.Fatalf("AcquireTargetLock(b) failed: %v", err)
		}
		defer lock2.Release()
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := AcquireTargetLock(ctx, filepath.Join(t.TempDir(), "x")); err == nil {
			t.Error("expected error for cancelled context")
		}
	})

	t.Run("missing parent directory", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "missing", "tool")
		if _, err := AcquireTargetLock(context.Background(), target); err == nil || err == ErrLockExists {
			t.Errorf("expected create error, got %v", err)
		}
	})
}

func TestLockRelease(t *testing.T) {
	t.Run("removes lock file", func(t *testing.T) {
		lockPath := filepath.Join(t.TempDir(), "tool.lock")

		lock, err := AcquireLock(context.Background(), lockPath)
		if err != nil {
			t.Fatalf("AcquireLock failed: %v", err)
		}
		if err := lock.Release(); err != nil {
			t.Fatalf("Release failed: %v", err)
		}
		if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
			t.Error("lock file should be removed after release")
		}
	})

	t.Run("allows new lock after release", func(t *testing.T) {
		lockPath := filepath.Join(t.TempDir(), "tool.lock")

		lock1, err := AcquireLock(context.Background(), lockPath)
		if err != nil {
			t.Fatalf("first AcquireLock failed: %v", err)
		}
		lock1.Release()

		lock2, err := AcquireLock(context.Background(), lockPath)
		if err != nil {
			t.Fatalf("second AcquireLock should succeed: %v", err)
		}
		defer lock2.Release()
	})

	t.Run("is idempotent", func(t *testing.T) {
		lock, err := AcquireLock(context.Background(), filepath.Join(t.TempDir(), "tool.lock"))
		if err != nil {
			t.Fatalf("AcquireLock failed: %v", err)
		}
		if err := lock.Release(); err != nil {
			t.Fatalf("first Release failed: %v", err)
		}
		if err := lock.Release(); err != nil {
			t.Fatalf("second Release should not error: %v", err)
		}
	})
}

func TestStaleLockHandling(t *testing.T) {
	t.Run("removes stale lock and acquires new one", func(t *testing.T) {
		lockPath := filepath.Join(t.TempDir(), "tool.lock")
		if err := os.WriteFile(lockPath, []byte("pid=99999\ntimestamp=2020-01-01T00:00:00Z\n"), 0600); err != nil {
			t.Fatalf("failed to create stale lock: %v", err)
		}
		staleTime := time.Now().Add(-StaleLockThreshold - time.Minute)
		if err := os.Chtimes(lockPath, staleTime, staleTime); err != nil {
			t.Fatalf("failed to set stale time: %v", err)
		}

		lock, err := AcquireLock(context.Background(), lockPath)
		if err != nil {
			t.Fatalf("AcquireLock should succeed with stale lock: %v", err)
		}
		defer lock.Release()
	})

	t.Run("fails for non-stale lock", func(t *testing.T) {
		lockPath := filepath.Join(t.TempDir(), "tool.lock")
		if err := os.WriteFile(lockPath, []byte("pid=99999\n"), 0600); err != nil {
			t.Fatalf("failed to create lock: %v", err)
		}

		if _, err := AcquireLock(context.Background(), lockPath); err != ErrLockExists {
			t.Errorf("expected ErrLockExists, got %v", err)
		}
	})
}
