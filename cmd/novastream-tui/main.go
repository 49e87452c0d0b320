package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/asasingh14/novastream/internal/config"
	"github.com/asasingh14/novastream/internal/download"
	"github.com/asasingh14/novastream/internal/logging"
	"github.com/asasingh14/novastream/internal/queue"
	"github.com/asasingh14/novastream/internal/tui"
)

func main() {
	configFlag := flag.String("config", config.DefaultPath(), "Path to config file")
	flag.Parse()

	if err := run(*configFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	store, err := queue.Open(settings.QueueFile)
	if err != nil {
		return err
	}

	deps := download.NewDeps(settings, logging.Discard())
	return tui.Run(tui.Options{
		Settings:  settings,
		Queue:     store,
		NewRunner: tui.ManagerFactory(deps),
	})
}
