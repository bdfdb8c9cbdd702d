package main

import (
	"fmt"
	"os"
)

// Set through -ldflags at build time.
var (
	version   = "dev"
	buildDate = ""
)

func main() {
	err := NewRootCmd().Execute()

	if closeErr := closeLogger(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)

		os.Exit(1)
	}
}
