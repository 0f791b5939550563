package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/internal/tradestore/csvfile"
	"github.com/wonny/tradelens/backend/internal/tradestore/postgres"
	"github.com/wonny/tradelens/backend/pkg/config"
	"github.com/wonny/tradelens/backend/pkg/database"
	"github.com/wonny/tradelens/backend/pkg/logger"
	"github.com/wonny/tradelens/backend/pkg/redis"
)

var (
	// Global flags
	env        string
	source     string
	tradesFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tradelens",
	Short: "TradeLens - 매매 성과 분석 엔진",
	Long: `TradeLens Unified CLI

청산된 거래 기록으로 손익, 드로다운, 연승/연패, 셋업별 기여도를 계산합니다.
거래는 PostgreSQL 저널 또는 CSV 파일에서 읽습니다.

Usage:
  go run ./cmd/tradelens [command]

Examples:
  go run ./cmd/tradelens report --from 2024-01-01 --to 2024-03-31
  go run ./cmd/tradelens report --source csv --file trades.csv --output json
  go run ./cmd/tradelens reports show latest
  go run ./cmd/tradelens schedule start
  go run ./cmd/tradelens test-db`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return applyFlagOverrides(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production)")
	rootCmd.PersistentFlags().StringVar(&source, "source", "", "trade source (postgres|csv), overrides TRADE_SOURCE")
	rootCmd.PersistentFlags().StringVar(&tradesFile, "file", "", "trades CSV path, overrides TRADES_CSV_PATH")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// applyFlagOverrides exports explicitly set flags so config.Load sees them
func applyFlagOverrides(cmd *cobra.Command) error {
	overrides := map[string]string{
		"env":    "ENV",
		"source": "TRADE_SOURCE",
		"file":   "TRADES_CSV_PATH",
	}
	for flag, key := range overrides {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		value, err := cmd.Flags().GetString(flag)
		if err != nil {
			return err
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	if cmd.Flags().Changed("file") && !cmd.Flags().Changed("source") {
		_ = os.Setenv("TRADE_SOURCE", config.SourceCSV)
	}
	if verbose {
		_ = os.Setenv("LOG_LEVEL", "debug")
	}
	return nil
}

// app bundles what every command needs after startup
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *database.DB // nil unless a database is configured

	redis *redis.Client // set once a command connects
}

// loadApp loads config, creates the logger and connects to PostgreSQL when configured
func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	rt := &app{
		cfg: cfg,
		log: logger.New(cfg),
	}

	if cfg.HasDatabase() {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		rt.db = db
	}

	return rt, nil
}

// Close releases the database pool and the redis connection
func (rt *app) Close() {
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
	if rt.db != nil {
		rt.db.Close()
	}
}

// tradeStore opens the configured trade source
func (rt *app) tradeStore() (contracts.TradeStore, error) {
	switch rt.cfg.Trades.Source {
	case config.SourceCSV:
		store, err := csvfile.Open(rt.cfg.Trades.CSVPath)
		if err != nil {
			return nil, fmt.Errorf("open trades csv: %w", err)
		}
		rt.log.WithField("path", store.Path()).Debug("Trades loaded from CSV")
		return store, nil
	default:
		if rt.db == nil {
			return nil, fmt.Errorf("trade source %s needs DATABASE_URL", rt.cfg.Trades.Source)
		}
		return postgres.NewStore(rt.db), nil
	}
}
