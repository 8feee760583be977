package telemetry

import (
	"errors"
	"net/url"
	"regexp"
	"time"

	"github.com/getsentry/sentry-go"

	"neo-midi/nasa"
)

const flushTimeout = 2 * time.Second

var apiKeyParam = regexp.MustCompile(`api_key=[^&\s"]*`)

// scrub masks api_key values anywhere an error message or URL can carry them
func scrub(event *sentry.Event) *sentry.Event {
	mask := func(s string) string {
		return apiKeyParam.ReplaceAllString(s, "api_key=REDACTED")
	}
	event.Message = mask(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = mask(event.Exception[i].Value)
	}
	if event.Request != nil {
		event.Request.URL = mask(event.Request.URL)
		event.Request.QueryString = mask(event.Request.QueryString)
	}
	return event
}

// Reporter forwards generation failures to Sentry
type Reporter struct {
	hub *sentry.Hub
}

// New initialises Sentry for dsn. An empty dsn returns a nil Reporter,
// whose methods are no-ops.
func New(dsn, release string) (*Reporter, error) {
	if dsn == "" {
		return nil, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:     dsn,
		Release: "neo-midi@" + release,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return scrub(event)
		},
	})
	if err != nil {
		return nil, err
	}
	return &Reporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Capture reports err, tagged with the failure kind
func (r *Reporter) Capture(err error) {
	if r == nil || err == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("kind", Kind(err))
		r.hub.CaptureException(err)
	})
}

// Flush waits for queued events
func (r *Reporter) Flush() {
	if r == nil {
		return
	}
	r.hub.Flush(flushTimeout)
}

// Kind classifies a generation failure for grouping. Start-time
// rejections never reach the reporter, so every failure is either a
// fetch or a sink one.
func Kind(err error) string {
	var serr *nasa.StatusError
	var uerr *url.Error
	if errors.As(err, &serr) || errors.As(err, &uerr) || errors.Is(err, nasa.ErrNoData) {
		return "network"
	}
	return "sink"
}
