// Package gemini はGoogle Gemini APIを使用したチャート分析クライアントを提供します。
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/usecase"
	"github.com/yangmw7/TradeVision-sub001/internal/platform/config"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/upstream"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"

	opGenerate = "gemini.generate"
)

// Config はGeminiクライアントの設定です。
// 認証情報とバックエンドの選択はgenaiが読む環境変数（GOOGLE_API_KEY, GOOGLE_GENAI_USE_VERTEXAI など）に従います。
type Config struct {
	Model     string
	MaxTokens int32
	Timeout   time.Duration
}

// LoadConfig は環境変数から設定を読み込みます。
func LoadConfig() Config {
	return Config{
		Model:     config.String("GEMINI_MODEL", DefaultModel),
		MaxTokens: int32(config.Int("VISION_MAX_TOKENS", 1500)),
		Timeout:   config.Duration("VISION_TIMEOUT", 60*time.Second),
	}
}

// ChartAnalyzer はGeminiにチャート画像とプロンプトを送信します。
type ChartAnalyzer struct {
	cfg    Config
	client *genai.Client
}

// ChartAnalyzerがVisionAnalyzerを実装していることをコンパイル時に検証します。
var _ usecase.VisionAnalyzer = (*ChartAnalyzer)(nil)

// NewChartAnalyzer はChartAnalyzerの新しいインスタンスを生成します。
func NewChartAnalyzer(ctx context.Context, cfg Config, httpClient *http.Client) (*ChartAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{HTTPClient: httpClient})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &ChartAnalyzer{cfg: cfg, client: client}, nil
}

// AnalyzeImage はプロンプトと画像を1つのユーザーメッセージとして送り、回答を返します。
func (g *ChartAnalyzer) AnalyzeImage(ctx context.Context, image []byte, mediaType entity.ContentType, prompt string) (*entity.Completion, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(image, string(mediaType)),
		}, genai.RoleUser),
	}

	var genCfg *genai.GenerateContentConfig
	if g.cfg.MaxTokens > 0 {
		genCfg = &genai.GenerateContentConfig{MaxOutputTokens: g.cfg.MaxTokens}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, contents, genCfg)
	if err != nil {
		return nil, classify(ctx, err)
	}
	return toCompletion(resp, g.cfg.Model)
}

var filteredReasons = map[genai.FinishReason]bool{
	genai.FinishReasonSafety:            true,
	genai.FinishReasonProhibitedContent: true,
	genai.FinishReasonBlocklist:         true,
	genai.FinishReasonSPII:              true,
}

// toCompletion はレスポンスをCompletionに変換します。
func toCompletion(resp *genai.GenerateContentResponse, model string) (*entity.Completion, error) {
	if resp == nil {
		return nil, upstream.New(upstream.ErrModelError, opGenerate, "", "empty response", nil)
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		return nil, upstream.New(upstream.ErrFilteredResponse, opGenerate, string(fb.BlockReason), fb.BlockReasonMessage, nil)
	}
	if len(resp.Candidates) == 0 {
		return nil, upstream.New(upstream.ErrModelError, opGenerate, "", "response has no candidates", nil)
	}

	reason := resp.Candidates[0].FinishReason
	if filteredReasons[reason] {
		return nil, upstream.New(upstream.ErrFilteredResponse, opGenerate, string(reason), "", nil)
	}

	c := &entity.Completion{
		Text:         resp.Text(),
		FinishReason: string(reason),
		Truncated:    reason == genai.FinishReasonMaxTokens,
		Model:        model,
	}
	if resp.ModelVersion != "" {
		c.Model = resp.ModelVersion
	}
	if u := resp.UsageMetadata; u != nil {
		c.Usage = entity.TokenUsage{
			PromptTokens:     int64(u.PromptTokenCount),
			CompletionTokens: int64(u.CandidatesTokenCount),
			TotalTokens:      int64(u.TotalTokenCount),
		}
	}
	return c, nil
}

// classify はgenaiのエラーを種別に変換します。
func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%s: %w", opGenerate, ctx.Err())
	}

	var code int
	var msg string
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, msg = apiErr.Code, apiErr.Message
	case errors.As(err, &apiErrPtr):
		code, msg = apiErrPtr.Code, apiErrPtr.Message
	}
	if code != 0 {
		kind := upstream.ErrModelError
		if code == http.StatusTooManyRequests || code >= http.StatusInternalServerError {
			kind = upstream.ErrModelUnavailable
		}
		return upstream.New(kind, opGenerate, fmt.Sprintf("HTTP %d", code), msg, err)
	}

	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return upstream.New(upstream.ErrModelUnavailable, opGenerate, "", "request timed out", err)
	}
	return upstream.New(upstream.ErrModelUnavailable, opGenerate, "", "transport failure", err)
}
