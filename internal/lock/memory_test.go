package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryLockerMutualExclusion(t *testing.T) {
	l := NewMemoryLocker(time.Minute)
	ctx := context.Background()

	acquired, err := l.Acquire(ctx, 1)
	if err != nil || !acquired {
		t.Fatalf("first acquire: got (%v, %v)", acquired, err)
	}

	acquired, err = l.Acquire(ctx, 1)
	if err != nil {
		t.Fatalf("second acquire errored: %v", err)
	}
	if acquired {
		t.Fatal("second acquire succeeded while lock held")
	}

	// Other users are independent.
	acquired, err = l.Acquire(ctx, 2)
	if err != nil || !acquired {
		t.Fatalf("acquire for other user: got (%v, %v)", acquired, err)
	}

	if err := l.Release(ctx, 1); err != nil {
		t.Fatalf("release: %v", err)
	}
	acquired, err = l.Acquire(ctx, 1)
	if err != nil || !acquired {
		t.Fatalf("re-acquire after release: got (%v, %v)", acquired, err)
	}
}

func TestMemoryLockerExactlyOneWinner(t *testing.T) {
	l := NewMemoryLocker(time.Minute)
	ctx := context.Background()

	const contenders = 50
	var winners int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			acquired, err := l.Acquire(ctx, 7)
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			if acquired {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestMemoryLockerExpiredLockIsFree(t *testing.T) {
	l := NewMemoryLocker(10 * time.Millisecond)
	ctx := context.Background()

	if acquired, _ := l.Acquire(ctx, 1); !acquired {
		t.Fatal("initial acquire failed")
	}

	time.Sleep(25 * time.Millisecond)

	// The holder never released; the expired lock must be claimable.
	if acquired, _ := l.Acquire(ctx, 1); !acquired {
		t.Fatal("expired lock could not be re-acquired")
	}
}

func TestMemoryLockerReleaseUnheldIsNoop(t *testing.T) {
	l := NewMemoryLocker(time.Minute)
	if err := l.Release(context.Background(), 99); err != nil {
		t.Fatalf("release of unheld lock: %v", err)
	}
}
