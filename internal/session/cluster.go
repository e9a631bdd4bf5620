package session

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/probectl/internal/tools"
)

// DefaultRemoteCommand is the command a cluster member runs to perform its
// own local session pass. Every member carries the same harness layout.
const DefaultRemoteCommand = "sessionctl"

// RunnerFactory builds a command runner bound to one cluster host.
type RunnerFactory func(host string) tools.CommandRunner

// Cluster triggers a session pass on every cluster member through the
// runners the factory hands out (SSH in production, fakes in tests). One
// failing host does not stop the rest.
type Cluster struct {
	Hosts     []string
	RunnerFor RunnerFactory
	Command   string
	Args      []string
}

// Run dispatches the remote command to every host in order.
func (c *Cluster) Run() error {
	if c.RunnerFor == nil {
		return fmt.Errorf("session: cluster runner factory is required")
	}

	var errs []error
	for _, host := range c.Hosts {
		res, err := c.RunnerFor(host).Run(c.command(), c.Args...)
		if err != nil {
			log.Warn().Str("host", host).Err(err).Msg("cluster member run failed")
			errs = append(errs, fmt.Errorf("session: host %s: %w", host, err))
			continue
		}
		log.Info().Str("host", host).Msg("cluster member run done")
		log.Debug().Str("host", host).Str("output", res.Combined()).Msg("cluster member output")
	}
	return errors.Join(errs...)
}

func (c *Cluster) command() string {
	if c.Command != "" {
		return c.Command
	}
	return DefaultRemoteCommand
}
