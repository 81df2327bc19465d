// Package main replays scripted games against an in-memory engine and prints
// every delivered notification as one JSON line.
//
// Usage:
//
//	replay -scenario internal/scenario/testdata/quick_pairing_win.yaml
//	replay -scenario internal/scenario/testdata
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/cory-johannsen/connectfour/internal/config"
	"github.com/cory-johannsen/connectfour/internal/observability"
	"github.com/cory-johannsen/connectfour/internal/scenario"
)

func main() {
	path := flag.String("scenario", "", "scenario YAML file or directory of scenario files")
	level := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := observability.NewLogger(config.LoggingConfig{Level: *level, Format: "console", Output: "stderr"})
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	scenarios, err := load(*path)
	if err != nil {
		logger.Fatal("loading scenarios", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	failed := 0
	for _, sc := range scenarios {
		transcript, err := scenario.Run(sc, logger)
		for _, entry := range transcript {
			if encErr := enc.Encode(struct {
				Scenario string `json:"scenario"`
				scenario.Entry
			}{sc.Name, entry}); encErr != nil {
				logger.Fatal("writing transcript", zap.Error(encErr))
			}
		}
		if err != nil {
			failed++
			logger.Error("scenario failed", zap.String("scenario", sc.Name), zap.Error(err))
			continue
		}
		logger.Info("scenario passed", zap.String("scenario", sc.Name), zap.Int("notifications", len(transcript)))
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d scenarios failed\n", failed, len(scenarios))
		os.Exit(1)
	}
}

func load(path string) ([]*scenario.Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return scenario.LoadDir(path)
	}
	sc, err := scenario.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	return []*scenario.Scenario{sc}, nil
}
