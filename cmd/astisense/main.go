package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/asticode/go-astilog"
	"github.com/asticode/go-astisense"
	"github.com/asticode/go-astisense/abbreviation"
	"github.com/asticode/go-astisense/pkg/poller"
	"github.com/asticode/go-astisense/worker"
	"github.com/asticode/go-astitools/config"
	"github.com/pkg/errors"
)

// Flags
var (
	config         = flag.String("c", "", "the config path")
	defaultMargin  = flag.Int("m", 0, "the default margin")
	disabled       = flag.Bool("d", false, "disables result abbreviation")
	input          = flag.String("i", "", "the result file path")
	stepSize       = flag.Duration("s", 0, "the step size (0.5s or 1s)")
	tagMarginsPath = flag.String("t", "", "the tag margins file path (.toml, .yaml)")
	url            = flag.String("u", "", "the result url")
)

func main() {
	// Parse flags
	flag.Parse()
	astilog.FlagInit()

	// Create configuration
	c := newConfiguration()

	// Create page reader
	r, streamMode, err := newPageReader(c)
	if err != nil {
		astilog.Fatal(errors.Wrap(err, "astisense: creating page reader failed"))
	}

	// Create abbreviation runnable
	a, err := astiabbreviation.NewRunnable("abbreviation", c.Abbreviation)
	if err != nil {
		astilog.Fatal(errors.Wrap(err, "astisense: creating abbreviation runnable failed"))
	}

	// Create worker
	w := worker.New("astisense")

	// Handle signals
	w.HandleSignals()

	// Register listenables first so that raw events are printed before being summarized
	w.RegisterListenables(newPrinter(c.Abbreviation.Enabled, streamMode, w.Stop))

	// Register runnables
	w.RegisterRunnables(worker.Runnable{
		AutoStart: true,
		Runnable:  a,
	})

	// Poll
	p := astipoller.New(r, c.Poller)
	w.Exec("poller", func(ctx context.Context) error {
		return p.Poll(ctx, func(es []astisense.DetectionEvent, endOfStream bool) (err error) {
			// Create message
			var m *astisense.Message
			if m, err = astisense.NewBatchMessage(astisense.Batch{
				EndOfStream: endOfStream,
				Events:      es,
			}); err != nil {
				err = errors.Wrap(err, "astisense: creating batch message failed")
				return
			}

			// Dispatch
			w.Dispatch(m)
			return
		})
	})

	// Wait
	w.Wait()
}

// Configuration represents a configuration
type Configuration struct {
	Abbreviation   astiabbreviation.Options `toml:"abbreviation"`
	HTTP           astipoller.HTTPOptions   `toml:"http"`
	Input          string                   `toml:"input"`
	Poller         astipoller.Options       `toml:"poller"`
	TagMarginsPath string                   `toml:"tag_margins_path"`
}

// newConfiguration creates a new configuration
func newConfiguration() *Configuration {
	// Global config
	gc := &Configuration{
		Abbreviation: astiabbreviation.Options{
			Enabled:  true,
			StepSize: 0.5,
		},
		HTTP: astipoller.HTTPOptions{
			Timeout: time.Minute,
		},
		Poller: astipoller.Options{
			Interval: 500 * time.Millisecond,
		},
	}

	// Flag config
	fc := &Configuration{
		Abbreviation: astiabbreviation.Options{
			DefaultMargin: *defaultMargin,
			StepSize:      stepSize.Seconds(),
		},
		HTTP: astipoller.HTTPOptions{
			URL: *url,
		},
		Input:          *input,
		TagMarginsPath: *tagMarginsPath,
	}

	// Build configuration
	i, err := asticonfig.New(gc, *config, fc)
	if err != nil {
		astilog.Fatal(err)
	}
	c := i.(*Configuration)

	// Disable
	if *disabled {
		c.Abbreviation.Enabled = false
	}

	// Load tag margins
	if c.TagMarginsPath != "" {
		ms, err := astiabbreviation.LoadTagMargins(c.TagMarginsPath)
		if err != nil {
			astilog.Fatal(errors.Wrap(err, "astisense: loading tag margins failed"))
		}
		if c.Abbreviation.TagMargins == nil {
			c.Abbreviation.TagMargins = make(map[string]int)
		}
		for n, m := range ms {
			c.Abbreviation.TagMargins[n] = m
		}
	}
	return c
}

// newPageReader creates the page reader. Results are streamed when they're read from an url.
func newPageReader(c *Configuration) (r astipoller.PageReader, streamMode bool, err error) {
	switch {
	case c.Input != "":
		if r, err = astipoller.NewFileReader(c.Input); err != nil {
			err = errors.Wrap(err, "astisense: creating file reader failed")
			return
		}
	case c.HTTP.URL != "":
		if r, err = astipoller.NewHTTPReader(c.HTTP); err != nil {
			err = errors.Wrap(err, "astisense: creating http reader failed")
			return
		}
		streamMode = true
	default:
		err = errors.New("astisense: no input file nor url provided")
	}
	return
}

// printer prints summary lines or, when abbreviation is disabled, raw events
type printer struct {
	enabled    bool
	stop       func()
	streamMode bool
}

func newPrinter(enabled, streamMode bool, stop func()) *printer {
	return &printer{
		enabled:    enabled,
		stop:       stop,
		streamMode: streamMode,
	}
}

func (p *printer) MessageNames() []string {
	if p.enabled {
		return []string{astisense.LinesMessage}
	}
	return []string{astisense.BatchMessage, astisense.LinesMessage}
}

func (p *printer) OnMessage(m *astisense.Message) (err error) {
	switch m.Name {
	case astisense.BatchMessage:
		// Parse payload
		var b astisense.Batch
		if b, err = astisense.ParseBatchPayload(m); err != nil {
			err = errors.Wrap(err, "astisense: parsing batch payload failed")
			return
		}

		// Print events
		for _, e := range b.Events {
			var b []byte
			if b, err = json.Marshal(e); err != nil {
				err = errors.Wrap(err, "astisense: marshaling event failed")
				return
			}
			fmt.Println(string(b))
		}
	case astisense.LinesMessage:
		// Parse payload
		var l astisense.Lines
		if l, err = astisense.ParseLinesPayload(m); err != nil {
			err = errors.Wrap(err, "astisense: parsing lines payload failed")
			return
		}

		// Print
		if p.enabled {
			if l.Text != "" {
				fmt.Println(l.Text)
			} else if p.streamMode && !l.EndOfStream {
				fmt.Println("...")
			}
		}

		// Stream has ended
		if l.EndOfStream {
			p.stop()
		}
	}
	return
}
