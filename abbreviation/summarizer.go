package astiabbreviation

import (
	"sort"

	"github.com/asticode/go-astilog"
	"github.com/asticode/go-astisense"
	"github.com/pkg/errors"
)

// DisabledMessage is returned by every processing method of a disabled summarizer
const DisabledMessage = "Result Abbreviation is currently disabled"

// OthersTagName is the catch-all tag sent by the detector when no class matched
const OthersTagName = "Others"

// PendingInterval represents a detection interval that has not been emitted yet
type PendingInterval struct {
	EndTime   float64 `json:"end_time"`
	Margin    float64 `json:"margin"` // In seconds
	StartTime float64 `json:"start_time"`
	Tag       string  `json:"tag"`
}

// Summarizer merges consecutive detections of the same tag into intervals.
// It is not safe for concurrent use: use one summarizer per stream.
type Summarizer struct {
	is        map[string]*PendingInterval
	minMargin float64
	o         Options
	order     []string // Pending tags in insertion order
}

// New creates a new summarizer
func New(o Options) (s *Summarizer, err error) {
	// Validate
	if err = o.validate(); err != nil {
		err = errors.Wrap(err, "astiabbreviation: validating options failed")
		return
	}

	// Create summarizer
	s = &Summarizer{
		is:        make(map[string]*PendingInterval),
		minMargin: o.minimumAcceptableMargin(),
		o:         o,
	}

	// Log margins
	if o.Enabled {
		astilog.Debugf("astiabbreviation: default margin is %d", o.DefaultMargin)
		var ns []string
		for n := range o.TagMargins {
			ns = append(ns, n)
		}
		sort.Strings(ns)
		for _, n := range ns {
			astilog.Debugf("astiabbreviation: margin of [%s] is %d", n, o.TagMargins[n])
		}
	}
	return
}

// Enabled returns whether the summarizer is enabled
func (s *Summarizer) Enabled() bool { return s.o.Enabled }

// ProcessEvent processes a single event and returns the lines of the intervals it closed
func (s *Summarizer) ProcessEvent(e astisense.DetectionEvent) string {
	// Disabled
	if !s.o.Enabled {
		return DisabledMessage
	}
	return s.processEvent(e)
}

func (s *Summarizer) processEvent(e astisense.DetectionEvent) (output string) {
	// Open or refresh intervals
	seen := make(map[string]bool, len(e.Tags))
	for _, t := range e.Tags {
		// Sentinel
		if t.Name == OthersTagName {
			continue
		}

		// Refresh
		if i, ok := s.is[t.Name]; ok {
			i.EndTime = e.EndTime
			i.Margin = s.o.marginFor(t.Name)
		} else {
			s.is[t.Name] = &PendingInterval{
				EndTime:   e.EndTime,
				Margin:    s.o.marginFor(t.Name),
				StartTime: e.StartTime,
				Tag:       t.Name,
			}
			s.order = append(s.order, t.Name)
		}
		seen[t.Name] = true
	}

	// Spend the margin of tags that are absent
	order := s.order[:0]
	for _, n := range s.order {
		i := s.is[n]
		if !seen[n] {
			i.Margin -= s.o.StepSize
			if i.Margin < s.minMargin {
				output = appendLine(output, line(n, i.StartTime, i.EndTime))
				delete(s.is, n)
				continue
			}
		}
		order = append(order, n)
	}
	s.order = order
	return
}

// ProcessBatch processes events in order and, at the end of the stream, flushes
// every pending interval
func (s *Summarizer) ProcessBatch(es []astisense.DetectionEvent, endOfStream bool) (output string) {
	// Disabled
	if !s.o.Enabled {
		return DisabledMessage
	}

	// Loop through events
	for _, e := range es {
		if l := s.processEvent(e); l != "" {
			output = appendLine(output, l)
		}
	}

	// Flush
	if endOfStream {
		if l := s.flush(); l != "" {
			output = appendLine(output, l)
		}
	}
	return
}

// Flush emits every pending interval regardless of its margin
func (s *Summarizer) Flush() string {
	// Disabled
	if !s.o.Enabled {
		return DisabledMessage
	}
	return s.flush()
}

func (s *Summarizer) flush() (output string) {
	for _, n := range s.order {
		i := s.is[n]
		output = appendLine(output, line(n, i.StartTime, i.EndTime))
		delete(s.is, n)
	}
	s.order = nil
	return
}

// Reset drops pending intervals without emitting them
func (s *Summarizer) Reset() {
	if !s.o.Enabled {
		return
	}
	s.is = make(map[string]*PendingInterval)
	s.order = nil
}

// Pending returns a copy of the pending intervals in insertion order
func (s *Summarizer) Pending() (is []PendingInterval) {
	is = make([]PendingInterval, 0, len(s.order))
	for _, n := range s.order {
		is = append(is, *s.is[n])
	}
	return
}
