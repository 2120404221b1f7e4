package pipeline

import (
	"net/url"
	"sync"
	"time"
)

// workerPool runs jobs with bounded concurrency and a mandatory minimum delay
// between consecutive requests to the same host. The delay is a fixed
// throttle, not adaptive backoff.
type workerPool struct {
	semaphore chan struct{}
	wg        sync.WaitGroup

	mu         sync.Mutex
	delay      time.Duration
	lastByHost map[string]time.Time
}

func newWorkerPool(maxWorkers int, delay time.Duration) *workerPool {
	return &workerPool{
		semaphore:  make(chan struct{}, maxWorkers),
		delay:      delay,
		lastByHost: make(map[string]time.Time),
	}
}

// submit enqueues a job. rawURL is only used to pick the pacing bucket.
func (wp *workerPool) submit(rawURL string, job func()) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		wp.pace(hostOf(rawURL))
		job()
	}()
}

func (wp *workerPool) wait() {
	wp.wg.Wait()
}

// pace blocks until at least the configured delay has passed since the last
// request to host. The reservation is made under the lock so two workers can
// never hit the same host back to back.
func (wp *workerPool) pace(host string) {
	wp.mu.Lock()
	now := time.Now()
	next := wp.lastByHost[host].Add(wp.delay)
	if next.Before(now) {
		next = now
	}
	wp.lastByHost[host] = next
	wp.mu.Unlock()

	if d := time.Until(next); d > 0 {
		time.Sleep(d)
	}
}

func hostOf(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return rawURL
}
