package astipoller

import (
	"context"
	"time"

	"github.com/asticode/go-astilog"
	"github.com/asticode/go-astisense"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Page represents a page of results
type Page struct {
	Events    []astisense.DetectionEvent
	NextToken string
}

// PageReader represents an object capable of reading result pages.
// An empty token asks for the first page.
type PageReader interface {
	ReadPage(ctx context.Context, token string) (Page, error)
}

// PageFunc is called for every page read. endOfStream is true for the last page.
type PageFunc func(events []astisense.DetectionEvent, endOfStream bool) error

type Options struct {
	// Minimum duration between two page reads. 0 means no pacing.
	Interval time.Duration `toml:"interval"`
}

// Poller reads pages until there are no more continuation tokens
type Poller struct {
	l *rate.Limiter
	r PageReader
}

// New creates a new poller
func New(r PageReader, o Options) *Poller {
	l := rate.NewLimiter(rate.Inf, 1)
	if o.Interval > 0 {
		l = rate.NewLimiter(rate.Every(o.Interval), 1)
	}
	return &Poller{
		l: l,
		r: r,
	}
}

// Poll blocks until the last page has been handled, fn fails, or the context is done
func (p *Poller) Poll(ctx context.Context, fn PageFunc) (err error) {
	var token string
	for n := 0; ; n++ {
		// Wait
		if err = p.l.Wait(ctx); err != nil {
			err = errors.Wrap(err, "astipoller: waiting failed")
			return
		}

		// Read page
		var pg Page
		if pg, err = p.r.ReadPage(ctx, token); err != nil {
			err = errors.Wrapf(err, "astipoller: reading page %d failed", n)
			return
		}
		astilog.Debugf("astipoller: read page %d with %d events", n, len(pg.Events))

		// Handle page
		eos := pg.NextToken == ""
		if err = fn(pg.Events, eos); err != nil {
			err = errors.Wrapf(err, "astipoller: handling page %d failed", n)
			return
		}

		// Last page
		if eos {
			return
		}
		token = pg.NextToken
	}
}
