package probe

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/probectl/internal/tools"
)

const (
	DefaultRTTClientExe = "JLinkRTTClient"
	DefaultGDBServerExe = "JLinkGDBServer"
	DefaultGDBPort      = 2331
)

// RunRTT starts the probe as a detached RTT server and blocks on the
// interactive RTT client. Cancelling the context kills the client; the
// server is torn down when either exits.
func (iv *Invoker) RunRTT(ctx context.Context, serial string, stdin io.Reader, stdout, stderr io.Writer) error {
	args := []string{
		"-device", iv.device(),
		"-if", iv.iface(),
		"-speed", strconv.Itoa(iv.speed()),
		"-autoconnect", "1",
	}
	if s := strings.TrimSpace(serial); s != "" {
		args = append(args, "-SelectEmuBySN", s)
	}

	server, err := iv.starter().Start(iv.exe(), args...)
	if err != nil {
		return fmt.Errorf("probe: start rtt server: %w", err)
	}
	defer func() {
		if err := server.Kill(); err != nil {
			log.Warn().Err(err).Msg("rtt server teardown")
		}
	}()

	err = iv.runner().RunStreaming(ctx, iv.rttClientExe(), nil, stdin, stdout, stderr)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// RunGDBServer runs the probe's GDB bridge in the foreground on a fixed port.
func (iv *Invoker) RunGDBServer(ctx context.Context, stdout, stderr io.Writer) error {
	args := []string{
		"-device", iv.device(),
		"-if", iv.iface(),
		"-speed", strconv.Itoa(iv.speed()),
		"-port", strconv.Itoa(iv.gdbPort()),
	}
	return iv.runner().RunStreaming(ctx, iv.gdbServerExe(), args, nil, stdout, stderr)
}

func (iv *Invoker) rttClientExe() string {
	if iv.RTTClientExe != "" {
		return iv.RTTClientExe
	}
	return DefaultRTTClientExe
}

func (iv *Invoker) gdbServerExe() string {
	if iv.GDBServerExe != "" {
		return iv.GDBServerExe
	}
	return DefaultGDBServerExe
}

func (iv *Invoker) gdbPort() int {
	if iv.GDBPort > 0 {
		return iv.GDBPort
	}
	return DefaultGDBPort
}

func (iv *Invoker) starter() tools.ProcessStarter {
	if iv.Starter != nil {
		return iv.Starter
	}
	return tools.ExecRunner{}
}
