// Package usecase はchartanalysisフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/domain/entity"
	quote "github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/market"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/upstream"
)

// MaxImageSize は画像アップロードの最大サイズ（10MB）です。
const MaxImageSize = 10 * 1024 * 1024

// ErrInvalidRequest は分析依頼が不正な場合に返されます。
var ErrInvalidRequest = errors.New("invalid analysis request")

// QuoteFetcher は現在値を取得するインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type QuoteFetcher interface {
	GetQuote(ctx context.Context, code string, candle market.CandleType) (*quote.Quote, error)
}

// VisionAnalyzer は画像とプロンプトからモデルの回答を得るインターフェースです。
type VisionAnalyzer interface {
	// AnalyzeImage は回答を返します。出力長の上限で切れた回答はTruncatedを立てて返します。
	AnalyzeImage(ctx context.Context, image []byte, mediaType entity.ContentType, prompt string) (*entity.Completion, error)
}

// ResultParser はモデルの回答を構造化します。
type ResultParser interface {
	Parse(raw string) entity.AnalysisResult
}

// SymbolLookup は銘柄コードから銘柄名を引くインターフェースです。
type SymbolLookup interface {
	LookupName(ctx context.Context, code string) (string, error)
}

// TextHinter はチャート画像内の文字を検出するインターフェースです。
type TextHinter interface {
	DetectText(ctx context.Context, image []byte) (string, error)
}

// Orchestrator は1件の分析依頼を最後まで処理します。
// 現在値・銘柄名・OCRは取得できなくても分析を続け、ビジョンモデルの失敗のみを失敗とします。
type Orchestrator struct {
	vision  VisionAnalyzer
	parser  ResultParser
	quotes  QuoteFetcher
	symbols SymbolLookup
	hinter  TextHinter
	retry   RetryPolicy
	now     func() time.Time
}

// OrchestratorOption はOrchestratorの任意設定です。
type OrchestratorOption func(*Orchestrator)

// WithQuoteFetcher は現在値による補足を有効にします。
func WithQuoteFetcher(q QuoteFetcher) OrchestratorOption {
	return func(o *Orchestrator) { o.quotes = q }
}

// WithSymbolLookup は銘柄名の補完を有効にします。
func WithSymbolLookup(s SymbolLookup) OrchestratorOption {
	return func(o *Orchestrator) { o.symbols = s }
}

// WithTextHinter はOCRによるヒントを有効にします。
func WithTextHinter(h TextHinter) OrchestratorOption {
	return func(o *Orchestrator) { o.hinter = h }
}

// WithRetryPolicy は再試行の設定を変更します。
func WithRetryPolicy(p RetryPolicy) OrchestratorOption {
	return func(o *Orchestrator) { o.retry = p }
}

// WithClock は時刻の取得元を差し替えます。
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator はOrchestratorの新しいインスタンスを生成します。
func NewOrchestrator(vision VisionAnalyzer, parser ResultParser, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		vision: vision,
		parser: parser,
		retry:  DefaultRetryPolicy(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Analyze はチャート画像を分析します。
// 現在値の取得に失敗した場合はDegradedを立てて分析を続けます。
// ビジョンモデルの失敗はそのエラー種別のまま返します。
func (o *Orchestrator) Analyze(ctx context.Context, req entity.AnalysisRequest) (*entity.Analysis, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	a := &entity.Analysis{
		StockCode:       req.StockCode,
		StockName:       strings.TrimSpace(req.StockName),
		CandleType:      req.CandleType,
		InvestmentLevel: req.InvestmentLevel,
		Feedback:        entity.FeedbackNone,
	}

	if req.StockCode != "" && o.quotes != nil {
		q, err := o.fetchQuote(ctx, req.StockCode, req.CandleType)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("analyze chart: %w", ctx.Err())
			}
			slog.Warn("現在値なしで分析を続行", "error", err, "stock_code", req.StockCode, "candle_type", string(req.CandleType))
			a.Degraded = true
		} else {
			a.Quote = q
			if a.StockName == "" {
				a.StockName = q.StockName
			}
		}
	}

	if a.StockName == "" && req.StockCode != "" && o.symbols != nil {
		name, err := o.symbols.LookupName(ctx, req.StockCode)
		if err != nil {
			slog.Warn("銘柄名を補完できません", "error", err, "stock_code", req.StockCode)
		} else {
			a.StockName = name
		}
	}

	var chartText string
	if o.hinter != nil {
		text, err := o.hinter.DetectText(ctx, req.Image)
		if err != nil {
			slog.Warn("チャート内の文字を検出できません", "error", err)
		} else {
			chartText = text
		}
	}

	prompt := BuildPrompt(PromptInput{
		StockCode:       a.StockCode,
		StockName:       a.StockName,
		CandleType:      a.CandleType,
		InvestmentLevel: a.InvestmentLevel,
		Quote:           a.Quote,
		ChartText:       chartText,
	})

	var completion *entity.Completion
	err := retry(ctx, o.retry, "vision", func(ctx context.Context) error {
		c, err := o.vision.AnalyzeImage(ctx, req.Image, req.ContentType, prompt)
		if err != nil {
			return err
		}
		completion = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("analyze chart: %w", err)
	}
	if strings.TrimSpace(completion.Text) == "" {
		kind := upstream.ErrModelError
		if completion.Truncated {
			kind = upstream.ErrTruncatedResponse
		}
		return nil, upstream.New(kind, "vision", completion.FinishReason, "model returned no text", nil)
	}
	if completion.Truncated {
		slog.Warn("モデルの回答が出力長の上限で切れています", "stock_code", req.StockCode, "finish_reason", completion.FinishReason)
	}

	a.Result = o.parser.Parse(completion.Text)
	a.Truncated = completion.Truncated
	a.Model = completion.Model
	a.CreatedAt = o.now()
	return a, nil
}

func (o *Orchestrator) fetchQuote(ctx context.Context, code string, candle market.CandleType) (*quote.Quote, error) {
	var q *quote.Quote
	err := retry(ctx, o.retry, "quote", func(ctx context.Context) error {
		got, err := o.quotes.GetQuote(ctx, code, candle)
		if err != nil {
			return err
		}
		q = got
		return nil
	})
	return q, err
}

// Validate は分析依頼の不変条件を検証します。
func Validate(req entity.AnalysisRequest) error {
	switch {
	case len(req.Image) == 0:
		return fmt.Errorf("%w: image data is empty", ErrInvalidRequest)
	case len(req.Image) > MaxImageSize:
		return fmt.Errorf("%w: image size exceeds maximum of %d bytes", ErrInvalidRequest, MaxImageSize)
	case !req.ContentType.Valid():
		return fmt.Errorf("%w: unsupported content type %q", ErrInvalidRequest, req.ContentType)
	case !req.CandleType.Valid():
		return fmt.Errorf("%w: unknown candle type %q", ErrInvalidRequest, req.CandleType)
	case req.StockCode != "" && !market.ValidStockCode(req.StockCode):
		return fmt.Errorf("%w: stock code must be 6 digits, got %q", ErrInvalidRequest, req.StockCode)
	case req.InvestmentLevel != "" && !req.InvestmentLevel.Valid():
		return fmt.Errorf("%w: unknown investment level %q", ErrInvalidRequest, req.InvestmentLevel)
	}
	return nil
}
