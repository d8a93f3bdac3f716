package overpass

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sells-group/geoquery/internal/resilience"
)

const validBody = `{"version":0.6,"generator":"Overpass API","elements":[{"type":"node","id":1,"lat":52.5,"lon":13.4,"tags":{"name":"Brandenburger Tor"}}]}`

// fakeClock is advanced only by its Sleep, so network time never counts
// against the budget.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	f.sleeps = append(f.sleeps, d)
	return nil
}

func (f *fakeClock) Sleeps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.sleeps...)
}

// recorder collects notifications.
type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

// newTestClient returns a client against url driven by clock, with a 1s/20s
// backoff so scenarios stay short.
func newTestClient(url string, clock *fakeClock, opts ...Option) *Client {
	base := []Option{
		WithEndpoint(url),
		WithBackoff(resilience.LinearBackoff{Base: time.Second, Max: 20 * time.Second}),
	}
	c := New(append(base, opts...)...)
	c.nowFunc = clock.Now
	c.sleep = clock.Sleep
	return c
}

// scriptedServer answers the n-th request with handlers[n], repeating the
// last handler once the script is exhausted.
func scriptedServer(t *testing.T, handlers ...http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		if n >= len(handlers) {
			n = len(handlers) - 1
		}
		handlers[n](w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// dropConnection aborts the response so the client sees a transport error.
func dropConnection(http.ResponseWriter, *http.Request) {
	panic(http.ErrAbortHandler)
}

// hang blocks until the client gives up on the request. The body is read
// first; the server only notices a closed connection after that.
func hang(_ http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	<-r.Context().Done()
}

// scriptedTransport replays canned outcomes without a network.
type scriptedTransport struct {
	mu    sync.Mutex
	steps []func(*http.Request) (*http.Response, error)
	calls int
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	i := min(s.calls, len(s.steps)-1)
	s.calls++
	step := s.steps[i]
	s.mu.Unlock()
	return step(req)
}
