package config_test

import (
	"fmt"

	"github.com/wonny/tradelens/backend/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Environment: %s\n", cfg.Env)
	fmt.Printf("Trade source: %s\n", cfg.Trades.Source)
	fmt.Printf("Report schedule: %s (%d workers)\n", cfg.Report.Schedule, cfg.Report.Workers)
	fmt.Printf("DB Max Connections: %d\n", cfg.Database.MaxConns)
}
