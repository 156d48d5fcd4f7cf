package main

import (
	"os"

	"github.com/openvending/vending/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
