// Package handler はchartanalysisフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/transport/http/dto"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/usecase"
	quotehandler "github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/transport/handler"
	quotedto "github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/transport/http/dto"
	jwtmw "github.com/yangmw7/TradeVision-sub001/internal/platform/jwt"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/market"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/upstream"
)

// AnalysisUsecase はチャート分析と履歴のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type AnalysisUsecase interface {
	Create(ctx context.Context, userID uint, req entity.AnalysisRequest) (*entity.Analysis, error)
	Get(ctx context.Context, userID uint, id uuid.UUID) (*entity.Analysis, error)
	List(ctx context.Context, userID uint, limit int) ([]entity.Analysis, error)
	UpdateFeedback(ctx context.Context, userID uint, id uuid.UUID, feedback string) (*entity.Analysis, error)
}

// AnalysisHandler はチャート分析のHTTPリクエストを処理します。
type AnalysisHandler struct {
	uc AnalysisUsecase
}

// NewAnalysisHandler はAnalysisHandlerの新しいインスタンスを生成します。
func NewAnalysisHandler(uc AnalysisUsecase) *AnalysisHandler {
	return &AnalysisHandler{uc: uc}
}

// Create はチャート画像をアップロードして分析します。
//
// エンドポイント: POST /v1/analyses
// Content-Type: multipart/form-data
// フィールド: image（必須、最大10MB）, candle_type（必須）, stock_code, stock_name, investment_level
func (h *AnalysisHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		slog.Warn("画像ファイルの取得に失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "画像ファイルが必要です"})
		return
	}
	if file.Size > usecase.MaxImageSize {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "画像サイズが上限（10MB）を超えています"})
		return
	}

	f, err := file.Open()
	if err != nil {
		slog.Error("画像ファイルのオープンに失敗", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "画像の読み込みに失敗しました"})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("画像ファイルのクローズに失敗", "error", err)
		}
	}()

	image, err := io.ReadAll(io.LimitReader(f, usecase.MaxImageSize+1))
	if err != nil {
		slog.Error("画像データの読み取りに失敗", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "画像の読み込みに失敗しました"})
		return
	}

	req, err := buildRequest(c, image, file.Header.Get("Content-Type"))
	if err != nil {
		slog.Warn("分析リクエストのバリデーションに失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	a, err := h.uc.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.fail(c, err, "チャート分析に失敗", "stock_code", req.StockCode, "candle_type", string(req.CandleType))
		return
	}
	if a.Degraded {
		slog.Warn("現在値なしで分析を保存", "analysis_id", a.ID.String(), "stock_code", a.StockCode)
	}

	c.JSON(http.StatusCreated, ToAnalysisResponse(a))
}

// List はユーザーの分析履歴を新しい順に返します。
//
// エンドポイント: GET /v1/analyses?limit=20
func (h *AnalysisHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "limitは1以上の整数で指定してください"})
			return
		}
		limit = n
	}

	items, err := h.uc.List(c.Request.Context(), userID, limit)
	if err != nil {
		h.fail(c, err, "分析履歴の取得に失敗")
		return
	}

	out := dto.AnalysisListResponse{Items: make([]dto.AnalysisResponse, 0, len(items))}
	for i := range items {
		out.Items = append(out.Items, ToAnalysisResponse(&items[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Get は分析を1件返します。
//
// エンドポイント: GET /v1/analyses/:id
func (h *AnalysisHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := analysisID(c)
	if !ok {
		return
	}

	a, err := h.uc.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.fail(c, err, "分析の取得に失敗", "analysis_id", id.String())
		return
	}
	c.JSON(http.StatusOK, ToAnalysisResponse(a))
}

// UpdateFeedback は分析へのフィードバックを更新します。
//
// エンドポイント: PATCH /v1/analyses/:id/feedback
// Content-Type: application/json {"feedback": "like" | "dislike" | "none"}
func (h *AnalysisHandler) UpdateFeedback(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := analysisID(c)
	if !ok {
		return
	}

	var body dto.FeedbackRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		slog.Warn("フィードバックのバリデーションに失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "feedbackが必要です"})
		return
	}

	a, err := h.uc.UpdateFeedback(c.Request.Context(), userID, id, body.Feedback)
	if err != nil {
		h.fail(c, err, "フィードバックの更新に失敗", "analysis_id", id.String())
		return
	}
	c.JSON(http.StatusOK, ToAnalysisResponse(a))
}

// fail はエラーをステータスに変換して応答します。5xxはERROR、それ以外はWARNで記録します。
func (h *AnalysisHandler) fail(c *gin.Context, err error, msg string, attrs ...any) {
	status, text := analysisErrorStatus(err)
	attrs = append([]any{"error", err, "status", status}, attrs...)
	if status >= http.StatusInternalServerError {
		slog.Error(msg, attrs...)
	} else {
		slog.Warn(msg, attrs...)
	}
	c.JSON(status, dto.ErrorResponse{Error: text, Code: upstream.CodeOf(err)})
}

func analysisErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrInvalidRequest):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), usecase.ErrInvalidRequest.Error()+": ")
	case errors.Is(err, usecase.ErrAnalysisNotFound):
		return http.StatusNotFound, "分析が見つかりません"
	case errors.Is(err, upstream.ErrFilteredResponse):
		return http.StatusUnprocessableEntity, "画像の内容によりモデルが回答を拒否しました"
	case errors.Is(err, upstream.ErrModelUnavailable), errors.Is(err, upstream.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "分析モデルが一時的に利用できません"
	case errors.Is(err, upstream.ErrModelError), errors.Is(err, upstream.ErrTruncatedResponse),
		errors.Is(err, upstream.ErrUpstreamRejected), errors.Is(err, upstream.ErrMalformedUpstreamData),
		errors.Is(err, upstream.ErrCredential):
		return http.StatusBadGateway, "分析モデルの呼び出しに失敗しました"
	default:
		return http.StatusInternalServerError, "内部エラーが発生しました"
	}
}

// buildRequest はフォームの値をAnalysisRequestに変換します。
func buildRequest(c *gin.Context, image []byte, header string) (entity.AnalysisRequest, error) {
	if header == "" || header == "application/octet-stream" {
		header = http.DetectContentType(image)
	}
	ct, err := entity.ParseContentType(header)
	if err != nil {
		return entity.AnalysisRequest{}, err
	}

	candleRaw := c.PostForm("candle_type")
	if strings.TrimSpace(candleRaw) == "" {
		return entity.AnalysisRequest{}, errors.New("candle_typeが必要です")
	}
	candle, err := market.ParseCandleType(candleRaw)
	if err != nil {
		return entity.AnalysisRequest{}, err
	}

	level, err := entity.ParseInvestmentLevel(c.PostForm("investment_level"))
	if err != nil {
		return entity.AnalysisRequest{}, err
	}

	return entity.AnalysisRequest{
		Image:           image,
		ContentType:     ct,
		StockCode:       strings.TrimSpace(c.PostForm("stock_code")),
		StockName:       strings.TrimSpace(c.PostForm("stock_name")),
		CandleType:      candle,
		InvestmentLevel: level,
	}, nil
}

func currentUser(c *gin.Context) (uint, bool) {
	if id, ok := jwtmw.UserID(c); ok {
		return id, true
	}
	c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "認証が必要です"})
	return 0, false
}

func analysisID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: fmt.Sprintf("不正なID: %s", c.Param("id"))})
		return uuid.Nil, false
	}
	return id, true
}

// ToAnalysisResponse はAnalysisをレスポンスDTOに変換します。
func ToAnalysisResponse(a *entity.Analysis) dto.AnalysisResponse {
	keyPoints := a.Result.KeyPoints
	if keyPoints == nil {
		keyPoints = []string{}
	}
	var q *quotedto.QuoteResponse
	if a.Quote != nil {
		r := quotehandler.ToQuoteResponse(a.Quote)
		q = &r
	}
	return dto.AnalysisResponse{
		ID:              a.ID.String(),
		StockCode:       a.StockCode,
		StockName:       a.StockName,
		CandleType:      string(a.CandleType),
		CandleLabel:     a.CandleType.Label(),
		InvestmentLevel: string(a.InvestmentLevel),
		ImagePath:       a.ImagePath,
		AnalysisResult: dto.AnalysisResultResponse{
			Pattern:         a.Result.Pattern,
			Trend:           a.Result.Trend,
			SupportLevel:    a.Result.SupportLevel,
			ResistanceLevel: a.Result.ResistanceLevel,
			VolumeAnalysis:  a.Result.VolumeAnalysis,
			TradingOpinion:  a.Result.TradingOpinion,
			Summary:         a.Result.Summary,
			KeyPoints:       keyPoints,
			RiskLevel:       a.Result.RiskLevel,
		},
		Feedback:      string(a.Feedback),
		FeedbackLabel: a.Feedback.Label(),
		Quote:         q,
		Degraded:      a.Degraded,
		Truncated:     a.Truncated,
		Model:         a.Model,
		CreatedAt:     a.CreatedAt,
	}
}
