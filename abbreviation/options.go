package astiabbreviation

import (
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SmallestStepSize is the smallest step size, in seconds, the detector
// historically supported. Zero margins get one extra grace step at or below it.
const SmallestStepSize = 0.5

// ErrInvalidConfiguration is returned when options can't be used to build a summarizer
var ErrInvalidConfiguration = errors.New("astiabbreviation: invalid configuration")

// Options represents summarizer options
type Options struct {
	// A tag's margin is spent by StepSize on every event it is absent from
	DefaultMargin int            `toml:"default_margin"`
	Enabled       bool           `toml:"enabled"`
	StepSize      float64        `toml:"step_size"` // In seconds
	TagMargins    map[string]int `toml:"tag_margins"`
}

func (o Options) validate() error {
	// Step size
	if o.StepSize <= 0 || math.IsNaN(o.StepSize) || math.IsInf(o.StepSize, 0) {
		return errors.Wrapf(ErrInvalidConfiguration, "step size %v is not > 0", o.StepSize)
	}

	// Margins
	if o.DefaultMargin < 0 {
		return errors.Wrapf(ErrInvalidConfiguration, "default margin %d is < 0", o.DefaultMargin)
	}
	for n, m := range o.TagMargins {
		if m < 0 {
			return errors.Wrapf(ErrInvalidConfiguration, "margin %d of tag %s is < 0", m, n)
		}
	}
	return nil
}

func (o Options) marginFor(tag string) float64 {
	if m, ok := o.TagMargins[tag]; ok {
		return float64(m)
	}
	return float64(o.DefaultMargin)
}

func (o Options) minimumAcceptableMargin() float64 {
	if o.DefaultMargin == 0 && o.StepSize <= SmallestStepSize {
		return -o.StepSize
	}
	return 0
}

// LoadTagMargins reads a tag => margin table from a .toml, .yaml or .yml file
func LoadTagMargins(path string) (ms map[string]int, err error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err = toml.DecodeFile(path, &ms); err != nil {
			err = errors.Wrapf(err, "astiabbreviation: decoding toml file %s failed", path)
			return
		}
	case ".yaml", ".yml":
		// Read file
		var b []byte
		if b, err = os.ReadFile(path); err != nil {
			err = errors.Wrapf(err, "astiabbreviation: reading %s failed", path)
			return
		}

		// Unmarshal
		if err = yaml.Unmarshal(b, &ms); err != nil {
			err = errors.Wrapf(err, "astiabbreviation: unmarshaling yaml file %s failed", path)
			return
		}
	default:
		err = errors.Errorf("astiabbreviation: unsupported extension %s for %s", ext, path)
		return
	}
	return
}
