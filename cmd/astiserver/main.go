package main

import (
	"flag"
	"time"

	"github.com/asticode/go-astilog"
	"github.com/asticode/go-astisense/abbreviation"
	"github.com/asticode/go-astisense/server"
	"github.com/asticode/go-astitools/config"
	"github.com/asticode/go-astitools/worker"
	"github.com/pkg/errors"
)

// Flags
var (
	addr   = flag.String("a", "", "the listen addr")
	config = flag.String("c", "", "the config path")
)

func main() {
	// Parse flags
	flag.Parse()
	astilog.FlagInit()

	// Create configuration
	c := newConfiguration()

	// Create server
	s, err := astiserver.New(c.Server)
	if err != nil {
		astilog.Fatal(errors.Wrap(err, "astiserver: creating server failed"))
	}

	// Create worker
	w := astiworker.NewWorker()

	// Handle signals
	w.HandleSignals()

	// Serve
	s.Serve(w)

	// Wait
	w.Wait()
}

// Configuration represents a configuration
type Configuration struct {
	Server         astiserver.Options `toml:"server"`
	TagMarginsPath string             `toml:"tag_margins_path"`
}

// newConfiguration creates a new configuration
func newConfiguration() *Configuration {
	// Global config
	gc := &Configuration{
		Server: astiserver.Options{
			Abbreviation: astiabbreviation.Options{
				Enabled:  true,
				StepSize: 0.5,
			},
			Addr:    "127.0.0.1:4000",
			Timeout: 5 * time.Second,
		},
	}

	// Flag config
	fc := &Configuration{
		Server: astiserver.Options{
			Addr: *addr,
		},
	}

	// Build configuration
	i, err := asticonfig.New(gc, *config, fc)
	if err != nil {
		astilog.Fatal(err)
	}
	c := i.(*Configuration)

	// Load tag margins
	if c.TagMarginsPath != "" {
		ms, err := astiabbreviation.LoadTagMargins(c.TagMarginsPath)
		if err != nil {
			astilog.Fatal(errors.Wrap(err, "astiserver: loading tag margins failed"))
		}
		if c.Server.Abbreviation.TagMargins == nil {
			c.Server.Abbreviation.TagMargins = make(map[string]int)
		}
		for n, m := range ms {
			c.Server.Abbreviation.TagMargins[n] = m
		}
	}
	return c
}
