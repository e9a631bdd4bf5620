package probe

import (
	"fmt"
	"strings"
)

// nRF52840 register addresses used by the commander scripts. Fixed by the
// chip, kept as constants so a board change is one edit.
const (
	regNVMCConfig   = "4001e504" // NVMC CONFIG: 1 = write enable, 2 = erase enable
	regNVMCEraseAll = "4001e50c" // NVMC ERASEALL: writing 1 starts a full chip erase
	regResetPin     = "40000544" // reset-pin latch

	nvmcWriteEnable = "1"
	nvmcEraseEnable = "2"

	// Settle time after triggering ERASEALL before the reset is issued.
	eraseSettleMillis = 100
)

// Script returns the ordered commander directives for one scripted action.
// The orderings come from the flash controller protocol and must not be
// reordered or deduplicated. Actions that run as plain processes (rtt,
// gdbserver, list) have no script and return nil.
func Script(action Action, hexPath, serial string) []string {
	switch action {
	case ActionReset:
		return []string{
			selectBySerial(serial),
			"r",
			"g",
			"exit",
		}
	case ActionPinReset:
		return []string{
			writeReg(regResetPin, "1"),
			"r",
			"exit",
		}
	case ActionEraseAll:
		return []string{
			selectBySerial(serial),
			"h",
			writeReg(regNVMCConfig, nvmcEraseEnable),
			writeReg(regNVMCEraseAll, "1"),
			sleep(eraseSettleMillis),
			"r",
			"exit",
		}
	case ActionFlash:
		return []string{
			selectBySerial(serial),
			loadFile(hexPath),
			"r",
			"g",
			"exit",
		}
	case ActionFlashSoftdevice:
		return []string{
			"h",
			writeReg(regNVMCConfig, nvmcEraseEnable),
			writeReg(regNVMCEraseAll, "1"),
			sleep(eraseSettleMillis),
			"r",
			"h",
			writeReg(regNVMCConfig, nvmcWriteEnable),
			selectBySerial(serial),
			loadFile(hexPath),
			"r",
			"g",
			"exit",
		}
	}
	return nil
}

func selectBySerial(serial string) string {
	return "SelectEmuBySN " + strings.TrimSpace(serial)
}

func writeReg(addr, value string) string {
	return "w4 " + addr + " " + value
}

func loadFile(path string) string {
	return "loadfile " + path
}

func sleep(millis int) string {
	return fmt.Sprintf("Sleep %d", millis)
}
