package main

import (
	"fmt"
	"os"

	"github.com/km-arc/go-beans/cmd"
)

// version is set at link time: -ldflags "-X main.version=v1.2.3"
var version string

func main() {
	cmd.SetVersion(version)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "beans:", err)
		os.Exit(1)
	}
}
