package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/probectl/internal/logging"
	"github.com/danmuck/probectl/internal/probe"
)

func main() {
	logging.ConfigureRuntime()

	exe := flag.String("exe", "", "probe executable (default JLinkExe)")
	device := flag.String("device", "", "target device name (default nrf52840_xxaa)")
	iface := flag.String("if", "", "target interface (default swd)")
	speed := flag.Int("speed", 0, "interface speed in kHz (default 4000)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Print(probe.Usage)
		return
	}

	action, err := probe.ParseAction(args[0])
	if err != nil {
		fmt.Print(probe.Usage)
		return
	}

	iv := newInvoker(*exe, *device, *iface, *speed)

	if err := dispatch(iv, action, args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "probectl: %v\n", err)
		os.Exit(1)
	}
}

func newInvoker(exe, device, iface string, speed int) *probe.Invoker {
	return &probe.Invoker{Exe: exe, Device: device, Interface: iface, SpeedKHz: speed}
}

func dispatch(iv *probe.Invoker, action probe.Action, rest []string) error {
	switch action {
	case probe.ActionFlash, probe.ActionFlashSoftdevice:
		return iv.Execute(action, arg(rest, 0), arg(rest, 1))

	case probe.ActionReset, probe.ActionPinReset, probe.ActionEraseAll:
		return iv.Execute(action, "", arg(rest, 0))

	case probe.ActionRTT:
		ctx, stop := interruptContext()
		defer stop()
		return iv.RunRTT(ctx, arg(rest, 0), os.Stdin, os.Stdout, os.Stderr)

	case probe.ActionGDBServer:
		ctx, stop := interruptContext()
		defer stop()
		return iv.RunGDBServer(ctx, os.Stdout, os.Stderr)

	case probe.ActionList:
		serials, err := iv.ListEmulators()
		if err != nil {
			return err
		}
		for _, serial := range serials {
			fmt.Println(serial)
		}
		return nil
	}

	fmt.Print(probe.Usage)
	return nil
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
