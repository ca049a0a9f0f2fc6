package main

import (
	"os"

	"github.com/flowstt/core/cmd/flowsttd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
