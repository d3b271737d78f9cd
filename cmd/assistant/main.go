package main

import (
	"os"

	"github.com/willfong/insurance-assistant/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
