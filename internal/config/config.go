// Package config loads the TOML tool configuration and writes starter
// templates for the session, hardware and cluster config files.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Session is the resolved sessionctl configuration.
type Session struct {
	ProbeExe  string
	Device    string
	Interface string
	SpeedKHz  int

	FirmwareRepo string
	DriverRepo   string

	ImageDir  string
	ImageName string
	HexSource string
	Bootstrap string
	Makefile  string

	HwConfig    string
	ResultsDir  string
	TestRunner  string
	PythonExe   string
	TestPattern string
	OTNSServer  string

	ClusterConfig string
	SSHUser       string
	SSHKeyPath    string
	SSHKnownHosts string
}

// DefaultSession carries the well-known harness paths; the config file
// overrides field by field.
func DefaultSession() Session {
	return Session{
		ProbeExe:    "JLinkExe",
		Device:      "nrf52840_xxaa",
		Interface:   "swd",
		SpeedKHz:    4000,
		ImageDir:    "/opt/openthread_test/images",
		ImageName:   "ot-ncp-ftd.hex",
		HwConfig:    "/opt/openthread_test/hwconfig.ini",
		ResultsDir:  "/opt/openthread_test/results",
		TestRunner:  "silk_run.py",
		PythonExe:   "python3",
		TestPattern: "ot_test_*.py",
	}
}

type fileSession struct {
	ProbeExe  string `toml:"probe_exe"`
	Device    string `toml:"device"`
	Interface string `toml:"interface"`
	SpeedKHz  int    `toml:"speed_khz"`

	FirmwareRepo string `toml:"firmware_repo"`
	DriverRepo   string `toml:"driver_repo"`

	ImageDir  string `toml:"image_dir"`
	ImageName string `toml:"image_name"`
	HexSource string `toml:"hex_source"`
	Bootstrap string `toml:"bootstrap"`
	Makefile  string `toml:"makefile"`

	HwConfig    string `toml:"hwconfig"`
	ResultsDir  string `toml:"results_dir"`
	TestRunner  string `toml:"test_runner"`
	PythonExe   string `toml:"python_exe"`
	TestPattern string `toml:"test_pattern"`
	OTNSServer  string `toml:"otns_server"`

	ClusterConfig string `toml:"cluster_config"`
	SSHUser       string `toml:"ssh_user"`
	SSHKeyPath    string `toml:"ssh_key"`
	SSHKnownHosts string `toml:"ssh_known_hosts"`
}

// LoadSession reads one session config file over the defaults and validates
// the result.
func LoadSession(path string) (Session, error) {
	cfg := DefaultSession()

	var raw fileSession
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Session{}, fmt.Errorf("load session config: %w", err)
	}

	setString := func(key string, dst *string, v string) {
		if !meta.IsDefined(key) {
			return
		}
		if s := strings.TrimSpace(v); s != "" {
			*dst = s
		}
	}

	setString("probe_exe", &cfg.ProbeExe, raw.ProbeExe)
	setString("device", &cfg.Device, raw.Device)
	setString("interface", &cfg.Interface, raw.Interface)
	if meta.IsDefined("speed_khz") && raw.SpeedKHz > 0 {
		cfg.SpeedKHz = raw.SpeedKHz
	}

	setString("firmware_repo", &cfg.FirmwareRepo, raw.FirmwareRepo)
	setString("driver_repo", &cfg.DriverRepo, raw.DriverRepo)

	setString("image_dir", &cfg.ImageDir, raw.ImageDir)
	setString("image_name", &cfg.ImageName, raw.ImageName)
	setString("hex_source", &cfg.HexSource, raw.HexSource)
	setString("bootstrap", &cfg.Bootstrap, raw.Bootstrap)
	setString("makefile", &cfg.Makefile, raw.Makefile)

	setString("hwconfig", &cfg.HwConfig, raw.HwConfig)
	setString("results_dir", &cfg.ResultsDir, raw.ResultsDir)
	setString("test_runner", &cfg.TestRunner, raw.TestRunner)
	setString("python_exe", &cfg.PythonExe, raw.PythonExe)
	setString("test_pattern", &cfg.TestPattern, raw.TestPattern)
	setString("otns_server", &cfg.OTNSServer, raw.OTNSServer)

	setString("cluster_config", &cfg.ClusterConfig, raw.ClusterConfig)
	setString("ssh_user", &cfg.SSHUser, raw.SSHUser)
	setString("ssh_key", &cfg.SSHKeyPath, raw.SSHKeyPath)
	setString("ssh_known_hosts", &cfg.SSHKnownHosts, raw.SSHKnownHosts)

	if err := cfg.Validate(); err != nil {
		return Session{}, err
	}
	return cfg, nil
}

// Validate checks the fields every session pass needs.
func (c Session) Validate() error {
	if strings.TrimSpace(c.FirmwareRepo) == "" {
		return fmt.Errorf("session config: firmware_repo is required")
	}
	if strings.TrimSpace(c.HwConfig) == "" {
		return fmt.Errorf("session config: hwconfig is required")
	}
	if strings.TrimSpace(c.ResultsDir) == "" {
		return fmt.Errorf("session config: results_dir is required")
	}
	if c.SpeedKHz <= 0 {
		return fmt.Errorf("session config: speed_khz must be positive")
	}
	return nil
}
