package astiabbreviation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsMargins(t *testing.T) {
	o := Options{DefaultMargin: 1, StepSize: 0.5, TagMargins: map[string]int{"Siren": 3}}
	assert.Equal(t, float64(3), o.marginFor("Siren"))
	assert.Equal(t, float64(1), o.marginFor("Dog"))
	assert.Equal(t, float64(0), o.minimumAcceptableMargin())

	o = Options{StepSize: 0.5}
	assert.Equal(t, float64(0), o.marginFor("Dog"))
	assert.Equal(t, -0.5, o.minimumAcceptableMargin())

	o = Options{StepSize: 0.25}
	assert.Equal(t, -0.25, o.minimumAcceptableMargin())

	o = Options{StepSize: 1}
	assert.Equal(t, float64(0), o.minimumAcceptableMargin())
}

func TestLoadTagMargins(t *testing.T) {
	dir := t.TempDir()

	// TOML
	p := filepath.Join(dir, "margins.toml")
	require.NoError(t, os.WriteFile(p, []byte("Dog = 1\nSiren = 2\n"), 0644))
	ms, err := LoadTagMargins(p)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Dog": 1, "Siren": 2}, ms)

	// YAML
	p = filepath.Join(dir, "margins.yml")
	require.NoError(t, os.WriteFile(p, []byte("Dog: 3\nMale_speech: 1\n"), 0644))
	ms, err = LoadTagMargins(p)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Dog": 3, "Male_speech": 1}, ms)

	// Invalid
	p = filepath.Join(dir, "margins.yaml")
	require.NoError(t, os.WriteFile(p, []byte("Dog: [1"), 0644))
	_, err = LoadTagMargins(p)
	assert.Error(t, err)
	_, err = LoadTagMargins(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
	_, err = LoadTagMargins(filepath.Join(dir, "margins.json"))
	assert.Error(t, err)
}
