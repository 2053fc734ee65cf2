package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testBackoff() BackoffConfig {
	return BackoffConfig{
		MaxRetries:      3,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		MaxElapsed:      time.Second,
	}
}

func TestGetRetriesRateLimit(t *testing.T) {
	var mu sync.Mutex
	var arrivals []time.Time

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		n := len(arrivals)
		mu.Unlock()

		if n <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.Client(), Config{BaseURL: srv.URL, Concurrency: 1, Backoff: testBackoff()})

	body, err := c.Get(context.Background(), "/data", nil)
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("unexpected body %q", body)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(arrivals) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(arrivals))
	}
	first := arrivals[1].Sub(arrivals[0])
	second := arrivals[2].Sub(arrivals[1])
	if second <= first {
		t.Errorf("backoff delays must strictly increase: %v then %v", first, second)
	}
}

func TestGetRateLimitExhaustion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := testBackoff()
	cfg.MaxRetries = 1
	c := New(srv.Client(), Config{BaseURL: srv.URL, Concurrency: 1, Backoff: cfg})

	_, err := c.Get(context.Background(), "/data", nil)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestGetPermanentErrorNoRetry(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(srv.Client(), Config{BaseURL: srv.URL, Concurrency: 1, Backoff: testBackoff()})

	_, err := c.Get(context.Background(), "/missing", nil)
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if n := attempts.Load(); n != 1 {
		t.Errorf("permanent rejections must not be retried, saw %d attempts", n)
	}
}

func TestGetTransientErrorBudget(t *testing.T) {
	// Point at a closed port so every attempt fails at the dial.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	cfg := BackoffConfig{
		MaxRetries:      10,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     50 * time.Millisecond,
		MaxElapsed:      100 * time.Millisecond,
	}
	c := New(&http.Client{Timeout: time.Second}, Config{BaseURL: url, Concurrency: 1, Backoff: cfg})

	start := time.Now()
	_, err := c.Get(context.Background(), "/data", nil)
	if err == nil {
		t.Fatal("expected failure against closed port")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("retry loop must stop once the budget is spent, ran %v", elapsed)
	}
}

func TestGetConcurrencyCeiling(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		inFlight.Add(-1)
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := New(srv.Client(), Config{BaseURL: srv.URL, Concurrency: 2, Backoff: testBackoff()})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Get(context.Background(), "/data", url.Values{}); err != nil {
				t.Errorf("get: %v", err)
			}
		}()
	}
	wg.Wait()

	if p := peak.Load(); p > 2 {
		t.Errorf("concurrency ceiling of 2 exceeded: peak %d", p)
	}
}
