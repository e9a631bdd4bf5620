package hwconfig

import (
	"errors"
	"testing"

	"github.com/danmuck/probectl/internal/testutil/testlog"
)

const sampleConfig = `[DEFAULT]
ClusterID = 3
LayoutCenter = 300,300
LayoutRadius = 100

[dev-board-01]
HwModel = nRF52840_OpenThread_Device
HwRev = 1.0
InterfaceSerialNumber = 683214573
USBInterfaceNumber = 0
DutSerial = FCA12B7E90D1

[dev-board-02]
HwModel = nRF52840_OpenThread_Device
HwRev = 1.0
InterfaceSerialNumber = 683921004
USBInterfaceNumber = 1
DutSerial = FCA12B7E90D2

[sniffer-01]
HwModel = NordicSniffer
InterfaceSerialNumber = 683100200
USBInterfaceNumber = 2
`

func TestParseHardwareConfig(t *testing.T) {
	testlog.Start(t)

	res, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := len(res.Modules()); got != 3 {
		t.Fatalf("expected 3 modules, got %d", got)
	}

	layout := res.Layout()
	if layout.ClusterID != 3 || layout.LayoutCenter != "300,300" || layout.LayoutRadius != 100 {
		t.Fatalf("unexpected layout hints: %+v", layout)
	}

	first := res.Modules()[0]
	if first.Name != "dev-board-01" || first.DutSerial != "FCA12B7E90D1" || first.USBInterface != 0 {
		t.Fatalf("unexpected first module: %+v", first)
	}
}

func TestSerialsFilterByModel(t *testing.T) {
	testlog.Start(t)

	res, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	serials := res.Serials(ModelNRF52840)
	if len(serials) != 2 || serials[0] != "683214573" || serials[1] != "683921004" {
		t.Fatalf("unexpected dev-board serials: %v", serials)
	}

	if all := res.Serials(""); len(all) != 3 {
		t.Fatalf("expected all serials with empty model, got %v", all)
	}
}

func TestClaimByModel(t *testing.T) {
	testlog.Start(t)

	res, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	sniffer, err := res.ClaimByModel(ModelSniffer)
	if err != nil {
		t.Fatalf("claim sniffer: %v", err)
	}
	if !sniffer.Claimed() {
		t.Fatalf("claimed module not marked claimed")
	}

	if _, err := res.ClaimByModel(ModelSniffer); !errors.Is(err, ErrHardwareNotFound) {
		t.Fatalf("second sniffer claim should fail with ErrHardwareNotFound, got %v", err)
	}

	if err := sniffer.Free(); err != nil {
		t.Fatalf("free: %v", err)
	}
	if _, err := res.ClaimByModel(ModelSniffer); err != nil {
		t.Fatalf("re-claim after free: %v", err)
	}
}

func TestParseRejectsIncompleteSections(t *testing.T) {
	testlog.Start(t)

	if _, err := Parse([]byte("[broken]\nHwModel = nRF52840_OpenThread_Device\n")); err == nil {
		t.Fatalf("expected error for missing InterfaceSerialNumber")
	}
	if _, err := Parse([]byte("[broken]\nInterfaceSerialNumber = 1\n")); err == nil {
		t.Fatalf("expected error for missing HwModel")
	}
}

func TestParseCluster(t *testing.T) {
	testlog.Start(t)

	hosts := ParseCluster([]byte("# cluster members\nhub-01.local\n\nhub-02.local\n  hub-03.local  \n"))
	if len(hosts) != 3 || hosts[0] != "hub-01.local" || hosts[2] != "hub-03.local" {
		t.Fatalf("unexpected cluster hosts: %v", hosts)
	}
}
