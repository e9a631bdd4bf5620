package probe

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/probectl/internal/tools"
)

var ErrNoScript = errors.New("probe: action has no commander script")

const (
	DefaultExe       = "JLinkExe"
	DefaultDevice    = "nrf52840_xxaa"
	DefaultInterface = "swd"
	DefaultSpeedKHz  = 4000
)

// Invoker writes a commander script to a temp file and drives the probe
// executable against it. The temp file is removed after every invocation,
// success or failure; the probe's own exit status is logged, never gated on.
type Invoker struct {
	Exe          string
	RTTClientExe string
	GDBServerExe string
	GDBPort      int
	Device       string
	Interface    string
	SpeedKHz     int
	TempDir      string
	Runner       tools.CommandRunner
	Starter      tools.ProcessStarter
}

// Execute runs one scripted action against the probe.
func (iv *Invoker) Execute(action Action, hexPath, serial string) error {
	script := Script(action, hexPath, serial)
	if len(script) == 0 {
		return fmt.Errorf("%w: %s", ErrNoScript, action)
	}

	path, err := iv.writeScript(script)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	res, err := iv.runner().Run(iv.exe(), iv.commanderArgs(path)...)
	iv.report(action, res, err)
	return nil
}

// ListEmulators queries the probe for attached emulators and returns their
// serial numbers.
func (iv *Invoker) ListEmulators() ([]string, error) {
	path, err := iv.writeScript([]string{"ShowEmuList", "exit"})
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	res, err := iv.runner().Run(iv.exe(), iv.commanderArgs(path)...)
	iv.report(ActionList, res, err)
	return ParseEmulatorSerials(res.Stdout), nil
}

// ParseEmulatorSerials extracts serial numbers from ShowEmuList output.
// Relevant lines look like:
//
//	J-Link [0]: Product name: J-Link OB-SAM3U128, Serial number: 683214573, ...
func ParseEmulatorSerials(out []byte) []string {
	const marker = "Serial number: "
	var serials []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, marker)
		if idx < 0 {
			continue
		}
		rest := line[idx+len(marker):]
		end := 0
		for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
			end++
		}
		if end > 0 {
			serials = append(serials, rest[:end])
		}
	}
	return serials
}

// writeScript composes the whole script in memory and writes it in one
// truncate-then-write step. The caller removes the returned path.
func (iv *Invoker) writeScript(lines []string) (string, error) {
	dir := iv.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("probectl-%d.jlink", os.Getpid()))
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("probe: write commander script: %w", err)
	}
	return path, nil
}

func (iv *Invoker) commanderArgs(scriptPath string) []string {
	return []string{
		"-device", iv.device(),
		"-if", iv.iface(),
		"-speed", strconv.Itoa(iv.speed()),
		"-autoconnect", "1",
		"-CommanderScript", scriptPath,
	}
}

func (iv *Invoker) report(action Action, res tools.Result, err error) {
	if err != nil {
		log.Warn().
			Str("action", string(action)).
			Int("exit_code", res.ExitCode).
			Err(err).
			Msg("probe exited abnormally")
	}
	log.Debug().
		Str("action", string(action)).
		Str("output", res.Combined()).
		Msg("probe output")
}

func (iv *Invoker) exe() string {
	if iv.Exe != "" {
		return iv.Exe
	}
	return DefaultExe
}

func (iv *Invoker) device() string {
	if iv.Device != "" {
		return iv.Device
	}
	return DefaultDevice
}

func (iv *Invoker) iface() string {
	if iv.Interface != "" {
		return iv.Interface
	}
	return DefaultInterface
}

func (iv *Invoker) speed() int {
	if iv.SpeedKHz > 0 {
		return iv.SpeedKHz
	}
	return DefaultSpeedKHz
}

func (iv *Invoker) runner() tools.CommandRunner {
	if iv.Runner != nil {
		return iv.Runner
	}
	return tools.ExecRunner{}
}
