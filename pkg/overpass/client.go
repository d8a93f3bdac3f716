// Package overpass is a resilient client for the Overpass API. Every query
// runs inside an overall wait budget; dropped connections and overload
// responses are retried with a linear backoff until the budget is spent.
package overpass

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geoquery/internal/messages"
	"github.com/sells-group/geoquery/internal/resilience"
)

// DefaultEndpoint is the public Overpass interpreter.
const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

// Default budgets.
const (
	DefaultAttemptTimeout  = 120 * time.Second
	DefaultMaxWaitSearch   = 180 * time.Second
	DefaultMaxWaitGeometry = 600 * time.Second
)

const defaultUserAgent = "geoquery/1.0 (+https://github.com/sells-group/geoquery)"

// Request is one logical query. Zero durations fall back to the client
// defaults; a nil Notifier discards progress messages.
type Request struct {
	Query          string
	MaxWait        time.Duration
	AttemptTimeout time.Duration
	Notifier       Notifier
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint sets the interpreter URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHTTPClient sets the HTTP client. Its Timeout should be zero or larger
// than the attempt timeout; attempts are bounded through their context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBusyClassifier sets the overload classifier. Empty status codes or
// hints fall back to the defaults.
func WithBusyClassifier(bc resilience.BusyClassifier) Option {
	return func(c *Client) { c.classifier = resilience.NewBusyClassifier(bc.StatusCodes, bc.Hints) }
}

// WithBackoff sets the retry schedule.
func WithBackoff(b resilience.LinearBackoff) Option {
	return func(c *Client) { c.backoff = b }
}

// WithAttemptTimeout sets the default per-attempt timeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.attemptTimeout = d
		}
	}
}

// WithMaxWait sets the default overall budgets for quick queries and for
// geometry queries.
func WithMaxWait(search, geometry time.Duration) Option {
	return func(c *Client) {
		if search > 0 {
			c.maxWaitSearch = search
		}
		if geometry > 0 {
			c.maxWaitGeometry = geometry
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMessages sets the printer used for progress messages.
func WithMessages(p *messages.Printer) Option {
	return func(c *Client) {
		if p != nil {
			c.messages = p
		}
	}
}

// Client executes Overpass queries. It is safe for concurrent use; separate
// Execute calls share nothing but the HTTP client.
type Client struct {
	endpoint        string
	httpClient      *http.Client
	classifier      resilience.BusyClassifier
	backoff         resilience.LinearBackoff
	attemptTimeout  time.Duration
	maxWaitSearch   time.Duration
	maxWaitGeometry time.Duration
	userAgent       string
	messages        *messages.Printer

	// nowFunc and sleep allow test injection of time.
	nowFunc func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint:        DefaultEndpoint,
		httpClient:      &http.Client{},
		classifier:      resilience.DefaultBusyClassifier(),
		backoff:         resilience.DefaultLinearBackoff(),
		attemptTimeout:  DefaultAttemptTimeout,
		maxWaitSearch:   DefaultMaxWaitSearch,
		maxWaitGeometry: DefaultMaxWaitGeometry,
		userAgent:       defaultUserAgent,
		messages:        messages.New(""),
		nowFunc:         time.Now,
		sleep:           resilience.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs req until it succeeds, fails hard, exhausts its wait budget or
// ctx ends. Failures are ErrTimeoutExceeded, *HardError or an error matching
// ErrCanceled whose cause is ctx.Err().
func (c *Client) Execute(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}
	maxWait := req.MaxWait
	if maxWait <= 0 {
		maxWait = c.maxWaitSearch
	}
	attemptTimeout := req.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = c.attemptTimeout
	}
	notifier := req.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}

	clock := resilience.NewDeadlineClockAt(maxWait, c.nowFunc)
	log := zap.L().With(
		zap.String("invocation_id", uuid.NewString()),
		zap.Duration("max_wait", maxWait),
	)

	state := StateAttempting
	attempt := 1
	var outcome AttemptOutcome

	for !state.Terminal() {
		switch state {
		case StateAttempting:
			if ctx.Err() != nil {
				state = StateFailedCanceled
				continue
			}
			if clock.Expired() {
				state = StateFailedTimeout
				continue
			}
			timeout := min(attemptTimeout, clock.Remaining())
			outcome = c.attempt(ctx, req.Query, timeout)
			logAttempt(log, attempt, timeout, outcome)

			switch {
			case outcome.Kind == OutcomeSuccess:
				state = StateSucceeded
			case !outcome.Retryable():
				state = StateFailedHard
			case ctx.Err() != nil:
				state = StateFailedCanceled
			case clock.Expired():
				state = StateFailedTimeout
			default:
				state = StateAwaitingBackoff
			}

		case StateAwaitingBackoff:
			scheduled := c.backoff.DelayFor(attempt)
			delay := clock.Clamp(scheduled)
			key := messages.ConnectionWait
			if outcome.Kind == OutcomeOverloaded {
				key = messages.BusyWait
			}
			notifier.Notify(c.messages.Text(key, strconv.Itoa(roundSeconds(scheduled))))
			log.Debug("overpass: backing off",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Duration("remaining", clock.Remaining()),
			)
			if err := c.sleep(ctx, delay); err != nil {
				state = StateFailedCanceled
				continue
			}
			attempt++
			state = StateAttempting
		}
	}

	switch state {
	case StateSucceeded:
		log.Info("overpass: query succeeded",
			zap.Int("attempts", attempt),
			zap.Duration("elapsed", clock.Elapsed()),
			zap.Int("elements", len(outcome.Response.Elements)),
		)
		return outcome.Response, nil

	case StateFailedHard:
		log.Warn("overpass: query failed",
			zap.Int("attempts", attempt),
			zap.Int("status", outcome.Status),
			zap.String("message", outcome.Message),
		)
		return nil, &HardError{Status: outcome.Status, Message: outcome.Message}

	case StateFailedTimeout:
		log.Warn("overpass: wait budget exhausted",
			zap.Int("attempts", attempt),
			zap.Duration("elapsed", clock.Elapsed()),
		)
		return nil, ErrTimeoutExceeded

	default:
		log.Info("overpass: query canceled",
			zap.Int("attempts", attempt),
			zap.Error(ctx.Err()),
		)
		return nil, canceledError(ctx.Err())
	}
}

// attempt performs one POST bounded by timeout and classifies the result.
func (c *Client) attempt(ctx context.Context, query string, timeout time.Duration) AttemptOutcome {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	form := url.Values{"data": {query}}
	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return AttemptOutcome{Kind: OutcomeHardError, Message: cleanErrorText(err.Error())}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return AttemptOutcome{Kind: OutcomeTransportFailure, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return AttemptOutcome{Kind: OutcomeTransportFailure, Status: resp.StatusCode, Err: err}
	}

	var parsed Response
	if err := json.Unmarshal(body, &parsed); err == nil {
		return AttemptOutcome{Kind: OutcomeSuccess, Status: resp.StatusCode, Response: &parsed}
	}

	text := string(body)
	if c.classifier.Classify(resp.StatusCode, text) {
		return AttemptOutcome{
			Kind:    OutcomeOverloaded,
			Status:  resp.StatusCode,
			Snippet: snippet(text),
			Err:     resilience.NewTransientError(eris.Errorf("overpass: server busy (status %d)", resp.StatusCode), resp.StatusCode),
		}
	}
	return AttemptOutcome{Kind: OutcomeHardError, Status: resp.StatusCode, Message: cleanErrorText(text)}
}

func logAttempt(log *zap.Logger, attempt int, timeout time.Duration, o AttemptOutcome) {
	fields := []zap.Field{
		zap.Int("attempt", attempt),
		zap.Duration("timeout", timeout),
		zap.Stringer("outcome", o.Kind),
		zap.Int("status", o.Status),
	}
	switch o.Kind {
	case OutcomeTransportFailure:
		fields = append(fields, zap.String("reason", resilience.TransportReason(o.Err)), zap.Error(o.Err))
		log.Warn("overpass: attempt failed", fields...)
	case OutcomeOverloaded:
		fields = append(fields, zap.String("reason", resilience.TransportReason(o.Err)), zap.String("snippet", o.Snippet))
		log.Warn("overpass: server busy", fields...)
	default:
		log.Debug("overpass: attempt finished", fields...)
	}
}

// roundSeconds converts a delay to whole seconds for display.
func roundSeconds(d time.Duration) int {
	return int(math.Round(d.Seconds()))
}
