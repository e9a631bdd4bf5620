package config

import (
	"fmt"
	"os"
	"strings"
)

// Template returns the starter content for one config kind.
func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "session":
		return sessionTemplate, nil
	case "hwconfig":
		return hwconfigTemplate, nil
	case "cluster":
		return clusterTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

// WriteTemplate writes one starter config, refusing to clobber an existing
// file unless overwrite is set.
func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const sessionTemplate = `probe_exe = "JLinkExe"
device = "nrf52840_xxaa"
interface = "swd"
speed_khz = 4000

firmware_repo = "/home/pi/openthread"
driver_repo = "/home/pi/wpantund"

image_dir = "/opt/openthread_test/images"
image_name = "ot-ncp-ftd.hex"

hwconfig = "/opt/openthread_test/hwconfig.ini"
results_dir = "/opt/openthread_test/results"
test_runner = "/home/pi/silk/silk/tests/silk_run.py"
python_exe = "python3"
test_pattern = "ot_test_*.py"

# otns_server = "localhost:9000"

# cluster_config = "/opt/openthread_test/cluster.conf"
# ssh_user = "pi"
# ssh_key = "/home/pi/.ssh/id_ed25519"
`

const hwconfigTemplate = `[DEFAULT]
ClusterID = 0
LayoutCenter = 300,300
LayoutRadius = 100

[dev-board-01]
HwModel = nRF52840_OpenThread_Device
HwRev = 1.0
InterfaceSerialNumber = 683214573
USBInterfaceNumber = 0
DutSerial = FCA12B7E90D1

[sniffer-01]
HwModel = NordicSniffer
HwRev = 1.0
InterfaceSerialNumber = 683100200
USBInterfaceNumber = 1
`

const clusterTemplate = `# one cluster member per line
hub-01.local
hub-02.local
`
