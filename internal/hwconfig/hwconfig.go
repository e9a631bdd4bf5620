package hwconfig

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

var (
	ErrHardwareNotFound = errors.New("hwconfig: hardware not found")
	ErrAlreadyClaimed   = errors.New("hwconfig: module already claimed")
	ErrNotClaimed       = errors.New("hwconfig: module not claimed")
)

// Known HwModel values.
const (
	ModelNRF52840 = "nRF52840_OpenThread_Device"
	ModelSniffer  = "NordicSniffer"
)

// Per-section keys.
const (
	keyHwModel         = "HwModel"
	keyHwRev           = "HwRev"
	keyInterfaceSerial = "InterfaceSerialNumber"
	keyUSBInterface    = "USBInterfaceNumber"
	keyDutSerial       = "DutSerial"
)

// DEFAULT-section layout hints, optional.
const (
	keyClusterID    = "ClusterID"
	keyLayoutCenter = "LayoutCenter"
	keyLayoutRadius = "LayoutRadius"
)

// Module is one attached development board from the hardware config.
type Module struct {
	Name            string
	Model           string
	HwRev           string
	InterfaceSerial string
	USBInterface    int
	DutSerial       string

	claimed bool
}

func (m *Module) Claimed() bool { return m.claimed }

func (m *Module) Claim() error {
	if m.claimed {
		return fmt.Errorf("%w: %s", ErrAlreadyClaimed, m.Name)
	}
	m.claimed = true
	return nil
}

func (m *Module) Free() error {
	if !m.claimed {
		return fmt.Errorf("%w: %s", ErrNotClaimed, m.Name)
	}
	m.claimed = false
	return nil
}

// Layout holds the optional DEFAULT-section hints used by external
// visualization tooling. Zero values mean "not set".
type Layout struct {
	ClusterID    int
	LayoutCenter string
	LayoutRadius int
}

// Resource is the parsed device pool for one test bed.
type Resource struct {
	modules []*Module
	layout  Layout
}

// Load parses an INI hardware config into a device pool.
func Load(path string) (*Resource, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("hwconfig: load %s: %w", path, err)
	}
	return fromFile(file)
}

// Parse parses hardware config content held in memory, for tests and remote
// reads.
func Parse(data []byte) (*Resource, error) {
	file, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("hwconfig: parse: %w", err)
	}
	return fromFile(file)
}

func fromFile(file *ini.File) (*Resource, error) {
	res := &Resource{}

	def := file.Section(ini.DefaultSection)
	res.layout.ClusterID = def.Key(keyClusterID).MustInt(0)
	res.layout.LayoutCenter = def.Key(keyLayoutCenter).String()
	res.layout.LayoutRadius = def.Key(keyLayoutRadius).MustInt(0)

	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		m := &Module{
			Name:            section.Name(),
			Model:           strings.TrimSpace(section.Key(keyHwModel).String()),
			HwRev:           strings.TrimSpace(section.Key(keyHwRev).String()),
			InterfaceSerial: strings.TrimSpace(section.Key(keyInterfaceSerial).String()),
			USBInterface:    section.Key(keyUSBInterface).MustInt(0),
			DutSerial:       strings.TrimSpace(section.Key(keyDutSerial).String()),
		}
		if m.Model == "" {
			return nil, fmt.Errorf("hwconfig: section %s missing %s", m.Name, keyHwModel)
		}
		if m.InterfaceSerial == "" {
			return nil, fmt.Errorf("hwconfig: section %s missing %s", m.Name, keyInterfaceSerial)
		}
		res.modules = append(res.modules, m)
	}

	return res, nil
}

// Modules returns the full pool in file order.
func (r *Resource) Modules() []*Module {
	return r.modules
}

// Layout returns the DEFAULT-section layout hints.
func (r *Resource) Layout() Layout {
	return r.layout
}

// Serials returns the interface serial of every module matching model, in
// file order. An empty model matches everything.
func (r *Resource) Serials(model string) []string {
	var serials []string
	for _, m := range r.modules {
		if model != "" && m.Model != model {
			continue
		}
		serials = append(serials, m.InterfaceSerial)
	}
	return serials
}

// ClaimByModel claims and returns the first unclaimed module of the given
// model.
func (r *Resource) ClaimByModel(model string) (*Module, error) {
	for _, m := range r.modules {
		if m.Model != model || m.claimed {
			continue
		}
		if err := m.Claim(); err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: model %s", ErrHardwareNotFound, model)
}
