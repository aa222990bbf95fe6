// Package main provides a command-line tool for reading and writing coils
// and holding registers on a Modbus device.
package main

import (
	"fmt"
	"os"
)

var version = "1.0.0"

func main() {
	if err := newRootCmd(nil).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
