package main

import (
	"os"

	"github.com/liveport/crmsync/internal/adapters/driving/cli"
	"github.com/liveport/crmsync/internal/logger"
)

func main() {
	if err := cli.Execute(); err != nil {
		logger.Error("%s", err)
		os.Exit(1)
	}
}
