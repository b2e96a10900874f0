// Package cli はtvctlコマンドを提供します。
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yangmw7/TradeVision-sub001/internal/app/di"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/domain/entity"
	quoteusecase "github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/usecase"
	symbollistadapters "github.com/yangmw7/TradeVision-sub001/internal/feature/symbollist/adapters"
	symbolentity "github.com/yangmw7/TradeVision-sub001/internal/feature/symbollist/domain/entity"
	symbollistusecase "github.com/yangmw7/TradeVision-sub001/internal/feature/symbollist/usecase"
	"github.com/yangmw7/TradeVision-sub001/internal/platform/config"
	infradb "github.com/yangmw7/TradeVision-sub001/internal/platform/db"
	"github.com/yangmw7/TradeVision-sub001/internal/platform/externalapi/kis"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/market"
)

// NewRootCmd はtvctlのルートコマンドを生成します。
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tvctl",
		Short:         "TradeVision chart analysis from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadDotEnv()
			level := slog.LevelWarn
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().Bool("debug", false, "Enable debug logging")
	root.PersistentFlags().Duration("timeout", 90*time.Second, "Overall timeout")

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newQuoteCmd())
	root.AddCommand(newSymbolsCmd())
	return root
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a chart image",
		Long: `Send a chart screenshot to the configured vision model and print the structured result.
When --code is given the current quote is included in the prompt if KIS credentials are set.`,
		Example: `  tvctl analyze --image chart.png --code 005930 --candle D
  tvctl analyze --image weekly.jpg --candle W --level beginner`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			imagePath, _ := cmd.Flags().GetString("image")
			code, _ := cmd.Flags().GetString("code")
			candle, _ := cmd.Flags().GetString("candle")
			level, _ := cmd.Flags().GetString("level")

			req, err := buildRequest(imagePath, code, candle, level)
			if err != nil {
				return fail(cmd, err)
			}

			vision, err := di.NewVisionAnalyzer(ctx, config.String("VISION_PROVIDER", di.ProviderOpenAI))
			if err != nil {
				return fail(cmd, err)
			}
			p, err := di.NewParser(config.String("ANALYSIS_LABEL_RULES_FILE", ""))
			if err != nil {
				return fail(cmd, err)
			}
			deps := di.OrchestratorDeps{Vision: vision, Parser: p}
			if kisCfg := kis.LoadConfig(); kisCfg.AppKey != "" {
				deps.Quotes = di.NewQuoteRepository(nil, kisCfg)
			}

			fmt.Fprintln(cmd.OutOrStdout(), infoStyle.Render("Analyzing "+imagePath+" ..."))
			a, err := di.NewOrchestrator(deps).Analyze(ctx, req)
			if err != nil {
				return fail(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), RenderAnalysis(a))
			return nil
		},
	}
	cmd.Flags().String("image", "", "Chart image file (png, jpeg, webp, gif)")
	cmd.Flags().String("code", "", "6-digit stock code")
	cmd.Flags().String("candle", string(market.CandleDay), "Candle type (1,3,5,10,15,30,60,D,W,M,Y)")
	cmd.Flags().String("level", "", "Investment level (beginner, intermediate, expert)")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quote <code>",
		Short:   "Show the current quote for a stock",
		Example: `  tvctl quote 005930`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			kisCfg := kis.LoadConfig()
			if kisCfg.AppKey == "" {
				return fail(cmd, fmt.Errorf("KIS_APP_KEY is not set"))
			}
			candle, _ := cmd.Flags().GetString("candle")

			uc := quoteusecase.NewQuoteUsecase(di.NewQuoteRepository(nil, kisCfg))
			q, err := uc.GetQuote(ctx, args[0], candle)
			if err != nil {
				return fail(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), RenderQuote(q))
			return nil
		},
	}
	cmd.Flags().String("candle", string(market.CandleDay), "Candle type")
	return cmd
}

func newSymbolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "Manage the symbol directory",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "import <csv>",
		Short:   "Upsert symbols from a code,name,market CSV file",
		Example: `  DB_DSN=... tvctl symbols import krx.csv`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			f, err := os.Open(args[0])
			if err != nil {
				return fail(cmd, err)
			}
			defer f.Close()

			symbols, err := ReadSymbolsCSV(f)
			if err != nil {
				return fail(cmd, err)
			}

			db, err := infradb.Open(infradb.LoadConfig(), &symbolentity.Symbol{})
			if err != nil {
				return fail(cmd, err)
			}
			uc := symbollistusecase.NewSymbolUsecase(symbollistadapters.NewSymbolRepository(db))
			n, err := uc.Import(ctx, symbols)
			if err != nil {
				return fail(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("imported %d symbols", n)))
			return nil
		},
	})
	return cmd
}

// buildRequest はフラグから分析依頼を組み立てます。
func buildRequest(imagePath, code, candle, level string) (entity.AnalysisRequest, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return entity.AnalysisRequest{}, err
	}
	ct, err := detectContentType(imagePath, data)
	if err != nil {
		return entity.AnalysisRequest{}, err
	}
	ctype, err := market.ParseCandleType(candle)
	if err != nil {
		return entity.AnalysisRequest{}, err
	}
	lv, err := entity.ParseInvestmentLevel(level)
	if err != nil {
		return entity.AnalysisRequest{}, err
	}
	return entity.AnalysisRequest{
		Image:           data,
		ContentType:     ct,
		StockCode:       code,
		CandleType:      ctype,
		InvestmentLevel: lv,
	}, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return context.WithTimeout(cmd.Context(), timeout)
}

func fail(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("error: "+err.Error()))
	return err
}
