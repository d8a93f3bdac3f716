package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sells-group/geoquery/internal/config"
	"github.com/sells-group/geoquery/internal/messages"
	"github.com/sells-group/geoquery/internal/osmgeo"
	"github.com/sells-group/geoquery/internal/resilience"
	"github.com/sells-group/geoquery/pkg/nominatim"
	"github.com/sells-group/geoquery/pkg/overpass"
)

// queryEnv holds the clients shared by the query commands and the server.
type queryEnv struct {
	Messages *messages.Printer
	Overpass *overpass.Client
	Search   nominatim.Client
	Loader   *osmgeo.Loader
}

// initQueryEnv validates the loaded config for mode and builds the clients.
func initQueryEnv(mode string) (*queryEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	return newQueryEnv(cfg), nil
}

func newQueryEnv(c *config.Config) *queryEnv {
	p := messages.New(c.Messages.Language)

	op := overpass.New(
		overpass.WithEndpoint(c.Overpass.Endpoint),
		overpass.WithBusyClassifier(resilience.FromBusyConfig(c.Overpass.BusyStatusCodes, c.Overpass.BusyHints)),
		overpass.WithBackoff(resilience.FromBackoffConfig(c.Overpass.RetryBaseDelayMs, c.Overpass.RetryMaxDelayMs)),
		overpass.WithAttemptTimeout(c.Overpass.RequestTimeout()),
		overpass.WithMaxWait(c.Overpass.MaxWaitSearch(), c.Overpass.MaxWaitGeometry()),
		overpass.WithUserAgent(c.Overpass.UserAgent),
		overpass.WithMessages(p),
	)

	search := nominatim.NewClient(
		nominatim.WithBaseURL(c.Nominatim.BaseURL),
		nominatim.WithLimit(c.Nominatim.Limit),
		nominatim.WithRateLimit(c.Nominatim.RatePerSec),
		nominatim.WithTimeout(time.Duration(c.Nominatim.TimeoutSecs)*time.Second),
		nominatim.WithUserAgent(c.Nominatim.UserAgent),
	)

	return &queryEnv{
		Messages: p,
		Overpass: op,
		Search:   search,
		Loader:   osmgeo.NewLoader(op, p),
	}
}

// progress prints notifier messages as lines on w.
func progress(w io.Writer) overpass.Notifier {
	return overpass.NotifierFunc(func(message string) {
		fmt.Fprintln(w, message)
	})
}

// localizedError carries the user-facing text of err while keeping err in
// the chain.
type localizedError struct {
	msg string
	err error
}

func (e *localizedError) Error() string { return e.msg }

func (e *localizedError) Unwrap() error { return e.err }

// localize replaces err's text with its message in the configured language.
// Errors without a user-facing message are returned unchanged.
func (e *queryEnv) localize(err error) error {
	var loc messages.Localizer
	if err == nil || !errors.As(err, &loc) {
		return err
	}
	return &localizedError{msg: e.Messages.Describe(err), err: err}
}
