package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mustang-stock/mustangctl/internal/cli"
	"github.com/mustang-stock/mustangctl/internal/config"
	"github.com/mustang-stock/mustangctl/internal/docker"
)

var version = "dev"

func main() {
	// Initialize configuration
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}

	// Execute root command
	if err := cli.Execute(version); err != nil {
		var exitErr *docker.ExitError
		if errors.As(err, &exitErr) && exitErr.Code > 0 {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
