package di

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/adapters/gemini"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/adapters/openai"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/adapters/vision"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/parser"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/usecase"
	"github.com/yangmw7/TradeVision-sub001/internal/platform/config"
	infrahttp "github.com/yangmw7/TradeVision-sub001/internal/platform/http"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// NewVisionAnalyzer はVISION_PROVIDERに応じたビジョンモデルのクライアントを生成します。
func NewVisionAnalyzer(ctx context.Context, provider string) (usecase.VisionAnalyzer, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderOpenAI:
		cfg := openai.LoadConfig()
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return openai.NewChartAnalyzer(cfg, infrahttp.NewHTTPClient(0)), nil
	case ProviderGemini:
		return gemini.NewChartAnalyzer(ctx, gemini.LoadConfig(), infrahttp.NewHTTPClient(0))
	default:
		return nil, fmt.Errorf("unknown VISION_PROVIDER %q", provider)
	}
}

// NewTextHinter はOCR_HINT_ENABLEDがtrueの場合にCloud Visionの文字検出を生成します。
// 無効な場合は (nil, nil, nil) を返します。
func NewTextHinter(ctx context.Context) (usecase.TextHinter, io.Closer, error) {
	if !config.Bool("OCR_HINT_ENABLED", false) {
		return nil, nil, nil
	}
	d, err := vision.NewTextDetector(ctx)
	if err != nil {
		return nil, nil, err
	}
	return d, d, nil
}

// NewParser はANALYSIS_LABEL_RULES_FILEのラベル定義でパーサーを生成します。未設定なら既定のラベルを使います。
func NewParser(rulesFile string) (*parser.Parser, error) {
	if rulesFile == "" {
		return parser.Default(), nil
	}
	rules, err := parser.LoadRules(rulesFile)
	if err != nil {
		return nil, err
	}
	return parser.New(rules), nil
}

// OrchestratorDeps はOrchestratorの依存です。Vision以外はnilでも構いません。
type OrchestratorDeps struct {
	Vision  usecase.VisionAnalyzer
	Quotes  usecase.QuoteFetcher
	Symbols usecase.SymbolLookup
	Hinter  usecase.TextHinter
	Parser  *parser.Parser
}

// NewOrchestrator は設定済みの依存だけを有効にしてOrchestratorを生成します。
func NewOrchestrator(d OrchestratorDeps) *usecase.Orchestrator {
	p := d.Parser
	if p == nil {
		p = parser.Default()
	}
	var opts []usecase.OrchestratorOption
	if d.Quotes != nil {
		opts = append(opts, usecase.WithQuoteFetcher(d.Quotes))
	}
	if d.Symbols != nil {
		opts = append(opts, usecase.WithSymbolLookup(d.Symbols))
	}
	if d.Hinter != nil {
		opts = append(opts, usecase.WithTextHinter(d.Hinter))
	}
	return usecase.NewOrchestrator(d.Vision, p, opts...)
}
