package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/probectl/internal/hwconfig"
	"github.com/danmuck/probectl/internal/probe"
	"github.com/danmuck/probectl/internal/tools"
)

var (
	ErrNoComponents = errors.New("session: no components configured")
	ErrNoHardware   = errors.New("session: hardware config has no flashable devices")
)

// git prints "Already up to date." since 2.15 and "Already up-to-date."
// before that; match both stems.
var upToDateMarkers = []string{"Already up to date", "Already up-to-date"}

const (
	DefaultPythonExe  = "python3"
	DefaultTestRunner = "silk_run.py"
	DefaultPattern    = "ot_test_*.py"
)

type ComponentKind string

const (
	KindFirmware ComponentKind = "firmware"
	KindDriver   ComponentKind = "driver"
)

// Component is one externally-maintained source tree the session tracks.
type Component struct {
	Name     string
	Kind     ComponentKind
	RepoPath string
}

// Flasher programs one hex image onto one probe serial.
type Flasher interface {
	Execute(action probe.Action, hexPath, serial string) error
}

// FirmwareBuilder produces a published hex image and returns its stable path.
type FirmwareBuilder interface {
	Build() (string, error)
}

// Orchestrator runs the change-check, rebuild, flash-all and test-run steps
// for one session pass. Everything is sequential; the probe serializes on
// the USB bus anyway.
type Orchestrator struct {
	Components []Component
	Hardware   *hwconfig.Resource
	Builder    FirmwareBuilder
	Flasher    Flasher
	Runner     tools.CommandRunner

	PythonExe   string
	TestRunner  string
	HwConfig    string
	ResultsDir  string
	TestPattern string
	OTNSServer  string

	Now func() time.Time
}

// Run performs one session pass. Components that report "already up to date"
// are skipped; a pass where nothing changed performs zero flashes and zero
// test-runner invocations.
func (o *Orchestrator) Run() error {
	if len(o.Components) == 0 {
		return ErrNoComponents
	}

	logger := log.With().Str("run_id", uuid.NewString()).Logger()

	changed := false
	for _, c := range o.Components {
		upToDate, err := o.pullUpToDate(c, logger)
		if err != nil {
			return err
		}
		if upToDate {
			logger.Info().Str("component", c.Name).Msg("already up to date, skipping")
			continue
		}
		changed = true
		logger.Info().Str("component", c.Name).Msg("component changed")

		if c.Kind == KindFirmware {
			if err := o.reflashAll(logger); err != nil {
				return err
			}
		}
	}

	if !changed {
		logger.Info().Msg("no components changed, nothing to do")
		return nil
	}

	return o.runTests(logger)
}

func (o *Orchestrator) pullUpToDate(c Component, logger zerolog.Logger) (bool, error) {
	if strings.TrimSpace(c.RepoPath) == "" {
		return false, fmt.Errorf("session: component %s has no repo path", c.Name)
	}

	res, err := o.Runner.Run("git", "-C", c.RepoPath, "pull")
	if err != nil {
		// Only the up-to-date marker means unchanged; a failed pull is
		// just more non-marker output and the pass keeps going.
		logger.Warn().Str("component", c.Name).Err(err).Msg("pull failed, treating as changed")
		return false, nil
	}

	out := res.Combined()
	for _, marker := range upToDateMarkers {
		if strings.Contains(out, marker) {
			return true, nil
		}
	}
	return false, nil
}

func (o *Orchestrator) reflashAll(logger zerolog.Logger) error {
	hexPath, err := o.Builder.Build()
	if err != nil {
		return err
	}

	serials := o.Hardware.Serials(hwconfig.ModelNRF52840)
	if len(serials) == 0 {
		return ErrNoHardware
	}

	for _, serial := range serials {
		// A failed flash is not detected as fatal; the pass proceeds.
		if err := o.Flasher.Execute(probe.ActionFlash, hexPath, serial); err != nil {
			logger.Warn().Str("serial", serial).Err(err).Msg("flash attempt failed")
			continue
		}
		logger.Info().Str("serial", serial).Str("image", hexPath).Msg("flashed")
	}
	return nil
}

func (o *Orchestrator) runTests(logger zerolog.Logger) error {
	resultsDir := o.resultsPath(o.now())
	name, args := o.testCommand(resultsDir)

	logger.Info().Str("results", resultsDir).Str("pattern", o.pattern()).Msg("launching test runner")
	res, err := o.Runner.Run(name, args...)
	if err != nil {
		logger.Warn().Int("exit_code", res.ExitCode).Err(err).Msg("test runner exited abnormally")
	}
	logger.Debug().Str("output", res.Combined()).Msg("test runner output")
	return nil
}

// testCommand assembles the runner argv. With an OTNS server configured the
// address travels to the runner through its environment via env(1), so the
// same argv shape works over SSH in cluster mode.
func (o *Orchestrator) testCommand(resultsDir string) (string, []string) {
	argv := []string{
		o.testRunner(),
		"-v2",
		"-c", o.HwConfig,
		"-d", resultsDir,
		o.pattern(),
	}
	if addr := strings.TrimSpace(o.OTNSServer); addr != "" {
		return "env", append([]string{"OTNS_SERVER=" + addr, o.pythonExe()}, argv...)
	}
	return o.pythonExe(), argv
}

// resultsPath mirrors the layout the harness expects:
// <results>/silk_run_<MM-DD>/test_run_on_<MM-DD-HH:MM>.
func (o *Orchestrator) resultsPath(now time.Time) string {
	day := now.Format("01-02")
	stamp := now.Format("01-02-15:04")
	return filepath.Join(o.ResultsDir, "silk_run_"+day, "test_run_on_"+stamp)
}

func (o *Orchestrator) pythonExe() string {
	if o.PythonExe != "" {
		return o.PythonExe
	}
	return DefaultPythonExe
}

func (o *Orchestrator) testRunner() string {
	if o.TestRunner != "" {
		return o.TestRunner
	}
	return DefaultTestRunner
}

func (o *Orchestrator) pattern() string {
	if o.TestPattern != "" {
		return o.TestPattern
	}
	return DefaultPattern
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
