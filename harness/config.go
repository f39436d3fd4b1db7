package harness

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/sarchlab/busharness/sim"
	"github.com/sarchlab/busharness/waveform"
)

// Environment variables read by LoadEnv.
const (
	EnvRelease  = "BUSHARNESS_RELEASE"
	EnvDeadline = "BUSHARNESS_DEADLINE"
	EnvQuantum  = "BUSHARNESS_QUANTUM"
	EnvTagDepth = "BUSHARNESS_TAG_DEPTH"
	EnvLogDir   = "BUSHARNESS_LOG_DIR"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid harness configuration")

// Config holds the startup parameters of a run. None of them change while
// the run is in progress.
type Config struct {
	ReleaseTime sim.VTime
	Deadline    sim.VTime
	Quantum     sim.VTime
	Unit        sim.TimeUnit
	TagDepth    int
	LogDir      string
	Clock       sim.ClockGenerator
	Trace       waveform.Plan

	CoverageEnabled  bool
	LegacyExitStatus bool
}

// DefaultConfig releases reset at 100 ns and gives up at 50 us.
func DefaultConfig() Config {
	return Config{
		ReleaseTime: 100,
		Deadline:    50 * sim.Nanosecond.PerMicrosecond(),
		Quantum:     1,
		Unit:        sim.Nanosecond,
		TagDepth:    10,
		LogDir:      "logs",
		Clock:       sim.DefaultClockGenerator(),
		Trace:       waveform.DefaultPlan("logs"),
	}
}

// Validate reports the first parameter that makes the run meaningless.
func (c Config) Validate() error {
	switch {
	case c.ReleaseTime <= 0:
		return errors.Wrapf(ErrInvalidConfig,
			"release time must be positive, got %d", c.ReleaseTime)
	case c.Quantum <= 0:
		return errors.Wrapf(ErrInvalidConfig,
			"quantum must be positive, got %d", c.Quantum)
	case c.Deadline <= c.ReleaseTime:
		return errors.Wrapf(ErrInvalidConfig,
			"deadline %d is not after release time %d",
			c.Deadline, c.ReleaseTime)
	case c.TagDepth <= 0:
		return errors.Wrapf(ErrInvalidConfig,
			"tag depth must be positive, got %d", c.TagDepth)
	case c.LogDir == "":
		return errors.Wrap(ErrInvalidConfig, "log directory must not be empty")
	case c.Trace.Enabled && c.Trace.SinkPath == "":
		return errors.Wrap(ErrInvalidConfig,
			"trace enabled without a sink path")
	}

	return nil
}

// LoadEnv applies the BUSHARNESS_* variables on top of c. The given .env
// files are loaded first; files that do not exist are skipped. Variables
// already set in the process environment win over the files.
func (c Config) LoadEnv(files ...string) (Config, error) {
	var existing []string

	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}

	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return c, errors.Wrap(err, "load env files")
		}
	}

	for _, v := range []struct {
		name string
		dst  *sim.VTime
	}{
		{EnvRelease, &c.ReleaseTime},
		{EnvDeadline, &c.Deadline},
		{EnvQuantum, &c.Quantum},
	} {
		if err := lookupTime(v.name, v.dst); err != nil {
			return c, err
		}
	}

	if s, ok := os.LookupEnv(EnvTagDepth); ok {
		depth, err := strconv.Atoi(s)
		if err != nil {
			return c, errors.Wrapf(err, "parse %s", EnvTagDepth)
		}

		c.TagDepth = depth
	}

	if s, ok := os.LookupEnv(EnvLogDir); ok && s != "" {
		c = c.WithLogDir(s)
	}

	return c, nil
}

func lookupTime(name string, dst *sim.VTime) error {
	s, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "parse %s", name)
	}

	*dst = sim.VTime(v)

	return nil
}

// WithLogDir moves every artifact into dir.
func (c Config) WithLogDir(dir string) Config {
	depth := c.Trace.HierarchyDepth
	enabled := c.Trace.Enabled

	c.LogDir = dir
	c.Trace = waveform.DefaultPlan(dir)
	c.Trace.Enabled = enabled
	c.Trace.HierarchyDepth = depth

	return c
}

// CoveragePath is where coverage counters are written.
func (c Config) CoveragePath() string {
	return filepath.Join(c.LogDir, "coverage.dat")
}
