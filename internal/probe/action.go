package probe

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownAction = errors.New("probe: unknown action")

// Action is one supported probe operation keyword.
type Action string

const (
	ActionReset           Action = "reset"
	ActionPinReset        Action = "pin-reset"
	ActionEraseAll        Action = "erase-all"
	ActionFlash           Action = "flash"
	ActionFlashSoftdevice Action = "flash-softdevice"
	ActionRTT             Action = "rtt"
	ActionGDBServer       Action = "gdbserver"
	ActionList            Action = "list"
)

// ParseAction maps the CLI spelling (--flash etc.) to an Action.
func ParseAction(arg string) (Action, error) {
	switch strings.TrimSpace(arg) {
	case "--reset":
		return ActionReset, nil
	case "--pin-reset":
		return ActionPinReset, nil
	case "--erase-all":
		return ActionEraseAll, nil
	case "--flash":
		return ActionFlash, nil
	case "--flash-softdevice":
		return ActionFlashSoftdevice, nil
	case "--rtt":
		return ActionRTT, nil
	case "--gdbserver":
		return ActionGDBServer, nil
	case "--list":
		return ActionList, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownAction, arg)
}

// Usage is the fixed banner printed for an unrecognized action. Unrecognized
// input performs no probe interaction.
const Usage = `usage: probectl <action> [hex_or_serial] [serial]

actions:
  --reset <serial>                   reset and resume the target
  --pin-reset <serial>               reset the target through the reset pin
  --erase-all <serial>               erase the whole flash
  --flash <hexfile> <serial>         flash an Intel HEX image
  --flash-softdevice <hexfile> <serial>
                                     erase, then flash a softdevice image
  --rtt <serial>                     attach an RTT terminal to the target
  --gdbserver                        run the GDB bridge on port 2331
  --list                             list attached probe serials
`
