package main

import (
	"fmt"
	"os"

	"github.com/danmuck/probectl/internal/logging"
)

func main() {
	logging.ConfigureRuntime()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sessionctl: %v\n", err)
		os.Exit(1)
	}
}
