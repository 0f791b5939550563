package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/internal/tradestore/csvfile"
	"github.com/wonny/tradelens/backend/internal/tradestore/postgres"
)

// tradesCmd groups journal maintenance commands
var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "거래 저널 관리",
	Long: `CSV 파일과 PostgreSQL 저널 사이에서 거래를 옮깁니다.

Subcommands:
  import  - CSV 거래를 journal.trades에 추가 (append-only)
  export  - 설정된 소스의 거래를 CSV로 출력

Example:
  go run ./cmd/tradelens trades import trades.csv
  go run ./cmd/tradelens trades export --out backup.csv`,
}

var (
	tradesImportCmd = &cobra.Command{
		Use:   "import [csv_file]",
		Short: "CSV 거래 가져오기",
		Args:  cobra.ExactArgs(1),
		RunE:  runTradesImport,
	}

	tradesExportCmd = &cobra.Command{
		Use:   "export",
		Short: "거래 CSV 내보내기",
		RunE:  runTradesExport,
	}
)

var tradesExportOut string

func init() {
	rootCmd.AddCommand(tradesCmd)
	tradesCmd.AddCommand(tradesImportCmd)
	tradesCmd.AddCommand(tradesExportCmd)

	tradesExportCmd.Flags().StringVar(&tradesExportOut, "out", "", "출력 파일 (기본 stdout)")
}

func runTradesImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	trades, err := csvfile.Read(f)
	if err != nil {
		return err
	}

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.db == nil {
		return fmt.Errorf("import needs DATABASE_URL")
	}

	if err := postgres.NewStore(a.db).InsertBulk(ctx, trades); err != nil {
		if errors.Is(err, contracts.ErrDuplicateKey) {
			return fmt.Errorf("import aborted, nothing written: %w", err)
		}
		return fmt.Errorf("import trades: %w", err)
	}

	a.log.WithFields(map[string]interface{}{
		"file":   args[0],
		"trades": len(trades),
	}).Info("Trades imported")
	fmt.Printf("✅ Imported %d trades\n", len(trades))
	return nil
}

func runTradesExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.tradeStore()
	if err != nil {
		return err
	}
	trades, err := store.List(ctx, contracts.TradeQuery{})
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}

	out := cmd.OutOrStdout()
	if tradesExportOut != "" {
		f, err := os.Create(tradesExportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", tradesExportOut, err)
		}
		defer f.Close()
		out = f
	}

	return csvfile.Write(out, trades)
}
