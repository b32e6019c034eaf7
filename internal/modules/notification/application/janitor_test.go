package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/application"
)

func TestJanitor_PurgeOncePassesRetentionWindow(t *testing.T) {
	repo := &fakeRepo{purgeReturn: 3}
	j := application.NewJanitor(repo, 45, time.Hour)

	j.PurgeOnce(context.Background())
	assert.Equal(t, []int{45}, repo.purgeDays)
}

func TestJanitor_DefaultsApplied(t *testing.T) {
	repo := &fakeRepo{}
	j := application.NewJanitor(repo, 0, 0)

	j.PurgeOnce(context.Background())
	assert.Equal(t, []int{30}, repo.purgeDays)
}

func TestJanitor_PurgeFailureIsSwallowed(t *testing.T) {
	repo := &fakeRepo{purgeErr: errors.New("store down")}
	j := application.NewJanitor(repo, 30, time.Hour)

	// Must not panic or propagate; the next tick retries.
	j.PurgeOnce(context.Background())
	assert.Equal(t, []int{30}, repo.purgeDays)
}

func TestJanitor_RunPurgesUntilCancelled(t *testing.T) {
	repo := &fakeRepo{}
	j := application.NewJanitor(repo, 30, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}

	repo.mu.Lock()
	passes := len(repo.purgeDays)
	repo.mu.Unlock()
	assert.GreaterOrEqual(t, passes, 1)
}
