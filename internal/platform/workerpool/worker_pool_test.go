package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"reconx/internal/platform/logx"
	"reconx/internal/testutil"
)

func newTestPool(workers int) *Pool {
	p := New(Config{Workers: workers, Logger: logx.NewSilent()})
	p.Start()
	return p
}

func TestSubmitReturnsResult(t *testing.T) {
	p := newTestPool(2)
	defer p.Stop()

	value, err := p.Submit(context.Background(), func() (any, error) {
		return 42, nil
	})
	testutil.AssertNoError(t, err, "submit")
	testutil.AssertEqual(t, value, 42, "result value")
}

func TestSubmitPropagatesError(t *testing.T) {
	p := newTestPool(1)
	defer p.Stop()

	_, err := p.Submit(context.Background(), func() (any, error) {
		return nil, context.DeadlineExceeded
	})
	testutil.AssertError(t, err, "submit should surface fn error")
}

func TestSubmitHonorsContext(t *testing.T) {
	p := newTestPool(1)
	defer p.Stop()

	// Occupy the single worker.
	release := make(chan struct{})
	go p.Submit(context.Background(), func() (any, error) {
		<-release
		return nil, nil
	})
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Submit(ctx, func() (any, error) {
		<-release
		return nil, nil
	})
	close(release)

	testutil.AssertError(t, err, "submit should time out")
	testutil.AssertTrue(t, time.Since(start) < time.Second, "returned promptly")
}

func TestConcurrencyIsBounded(t *testing.T) {
	p := newTestPool(2)
	defer p.Stop()

	var current, peak int64
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Submit(context.Background(), func() (any, error) {
				n := atomic.AddInt64(&current, 1)
				for {
					old := atomic.LoadInt64(&peak)
					if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt64(&current, -1)
				return nil, nil
			})
		}()
	}
	wg.Wait()

	testutil.AssertTrue(t, atomic.LoadInt64(&peak) <= 2, "never more than two workers busy")
}

func TestStopIsIdempotent(t *testing.T) {
	p := newTestPool(1)
	p.Stop()
	p.Stop()
}
