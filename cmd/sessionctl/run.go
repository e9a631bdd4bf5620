package main

import (
	"flag"
	"fmt"

	"github.com/danmuck/probectl/internal/build"
	"github.com/danmuck/probectl/internal/config"
	"github.com/danmuck/probectl/internal/hwconfig"
	"github.com/danmuck/probectl/internal/probe"
	"github.com/danmuck/probectl/internal/session"
	"github.com/danmuck/probectl/internal/tools"
)

func run() error {
	cfgPath := flag.String("config", "/opt/openthread_test/session.toml", "session config path")
	cluster := flag.Bool("cluster", false, "trigger a session run on every cluster member over SSH")
	flag.Parse()

	cfg, err := config.LoadSession(*cfgPath)
	if err != nil {
		return err
	}

	if *cluster {
		return runCluster(cfg, *cfgPath)
	}
	return runLocal(cfg)
}

func runLocal(cfg config.Session) error {
	hardware, err := hwconfig.Load(cfg.HwConfig)
	if err != nil {
		return err
	}

	orch := &session.Orchestrator{
		Components: components(cfg),
		Hardware:   hardware,
		Builder: &build.Builder{
			RepoPath:  cfg.FirmwareRepo,
			ImageDir:  cfg.ImageDir,
			ImageName: cfg.ImageName,
			Bootstrap: cfg.Bootstrap,
			Makefile:  cfg.Makefile,
			HexSource: cfg.HexSource,
		},
		Flasher: &probe.Invoker{
			Exe:       cfg.ProbeExe,
			Device:    cfg.Device,
			Interface: cfg.Interface,
			SpeedKHz:  cfg.SpeedKHz,
		},
		Runner:      tools.ExecRunner{},
		TestRunner:  cfg.TestRunner,
		PythonExe:   cfg.PythonExe,
		HwConfig:    cfg.HwConfig,
		ResultsDir:  cfg.ResultsDir,
		TestPattern: cfg.TestPattern,
		OTNSServer:  cfg.OTNSServer,
	}
	return orch.Run()
}

func runCluster(cfg config.Session, cfgPath string) error {
	if cfg.ClusterConfig == "" {
		return fmt.Errorf("cluster mode needs cluster_config in %s", cfgPath)
	}

	hosts, err := hwconfig.LoadCluster(cfg.ClusterConfig)
	if err != nil {
		return err
	}

	c := &session.Cluster{
		Hosts: hosts,
		RunnerFor: func(host string) tools.CommandRunner {
			return tools.SSHRunner{
				Host:           host,
				User:           cfg.SSHUser,
				KeyPath:        cfg.SSHKeyPath,
				KnownHostsPath: cfg.SSHKnownHosts,
			}
		},
		Args: []string{"-config", cfgPath},
	}
	return c.Run()
}

func components(cfg config.Session) []session.Component {
	list := []session.Component{
		{Name: "openthread", Kind: session.KindFirmware, RepoPath: cfg.FirmwareRepo},
	}
	if cfg.DriverRepo != "" {
		list = append(list, session.Component{
			Name: "wpantund", Kind: session.KindDriver, RepoPath: cfg.DriverRepo,
		})
	}
	return list
}
