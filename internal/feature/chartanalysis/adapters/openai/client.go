// Package openai はOpenAI互換のChat Completions APIを使ったチャート分析クライアントを提供します。
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/usecase"
	"github.com/yangmw7/TradeVision-sub001/internal/platform/config"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/upstream"
)

const (
	// DefaultModel はビジョン対応の既定モデルです。
	DefaultModel = "gpt-4o"

	opChat = "openai.chat"

	finishLength        = "length"
	finishContentFilter = "content_filter"
)

// Config はOpenAI互換エンドポイントの設定です。
type Config struct {
	APIKey      string
	BaseURL     string // 空の場合はSDKの既定値
	Model       string
	MaxTokens   int64
	Timeout     time.Duration
	ImageDetail string // "auto" | "low" | "high"
}

// LoadConfig は環境変数から設定を読み込みます。
func LoadConfig() Config {
	return Config{
		APIKey:      config.String("OPENAI_API_KEY", ""),
		BaseURL:     config.String("OPENAI_BASE_URL", ""),
		Model:       config.String("OPENAI_MODEL", DefaultModel),
		MaxTokens:   int64(config.Int("VISION_MAX_TOKENS", 1500)),
		Timeout:     config.Duration("VISION_TIMEOUT", 60*time.Second),
		ImageDetail: config.String("VISION_IMAGE_DETAIL", "high"),
	}
}

// ChartAnalyzer はチャート画像とプロンプトを1回のChat Completionsリクエストで送信します。
type ChartAnalyzer struct {
	cfg    Config
	client oa.Client
}

// ChartAnalyzerがVisionAnalyzerを実装していることをコンパイル時に検証します。
var _ usecase.VisionAnalyzer = (*ChartAnalyzer)(nil)

// NewChartAnalyzer はChartAnalyzerを生成します。httpClientがnilの場合はSDKの既定クライアントを使います。
// 再試行はユースケース側で行うため、SDKの自動再試行は無効にします。
func NewChartAnalyzer(cfg Config, httpClient *http.Client) *ChartAnalyzer {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &ChartAnalyzer{cfg: cfg, client: oa.NewClient(opts...)}
}

// AnalyzeImage は画像をdata URLとして埋め込み、モデルの回答を返します。
func (a *ChartAnalyzer) AnalyzeImage(ctx context.Context, image []byte, mediaType entity.ContentType, prompt string) (*entity.Completion, error) {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	params := oa.ChatCompletionNewParams{
		Model: oa.ChatModel(a.cfg.Model),
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.UserMessage([]oa.ChatCompletionContentPartUnionParam{
				oa.TextContentPart(prompt),
				oa.ImageContentPart(oa.ChatCompletionContentPartImageImageURLParam{
					URL:    dataURL(image, mediaType),
					Detail: a.cfg.ImageDetail,
				}),
			}),
		},
	}
	if a.cfg.MaxTokens > 0 {
		params.MaxTokens = oa.Int(a.cfg.MaxTokens)
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return nil, upstream.New(upstream.ErrModelError, opChat, "", "response has no choices", nil)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == finishContentFilter {
		return nil, upstream.New(upstream.ErrFilteredResponse, opChat, choice.FinishReason, "", nil)
	}

	return &entity.Completion{
		Text:         choice.Message.Content,
		FinishReason: choice.FinishReason,
		Truncated:    choice.FinishReason == finishLength,
		Model:        resp.Model,
		Usage: entity.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func dataURL(image []byte, mediaType entity.ContentType) string {
	return "data:" + string(mediaType) + ";base64," + base64.StdEncoding.EncodeToString(image)
}

// classify はSDKのエラーを種別に変換します。
// 429と5xxおよび通信失敗は一時的なものとしてModelUnavailableにします。
func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%s: %w", opChat, ctx.Err())
	}

	var apiErr *oa.Error
	if errors.As(err, &apiErr) {
		code := fmt.Sprintf("HTTP %d", apiErr.StatusCode)
		msg := strings.TrimSpace(apiErr.Message)
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError {
			return upstream.New(upstream.ErrModelUnavailable, opChat, code, msg, err)
		}
		return upstream.New(upstream.ErrModelError, opChat, code, msg, err)
	}

	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return upstream.New(upstream.ErrModelUnavailable, opChat, "", "request timed out", err)
	}
	return upstream.New(upstream.ErrModelUnavailable, opChat, "", "transport failure", err)
}
