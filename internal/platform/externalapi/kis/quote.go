package kis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/usecase"
	"github.com/yangmw7/TradeVision-sub001/internal/platform/credential"
	"github.com/yangmw7/TradeVision-sub001/internal/platform/externalapi/kis/dto"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/market"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/ratelimiter"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/upstream"
)

const (
	inquirePricePath = "/uapi/domestic-stock/v1/quotations/inquire-price"
	trIDInquirePrice = "FHKST01010100"
	marketDivStock   = "J"
	resultSuccess    = "0"
	opInquirePrice   = "kis.inquire-price"

	// msgTokenExpired はアクセストークンが失効した場合のmsg_cdです。
	msgTokenExpired = "EGW00123"
)

// CredentialProvider は有効なアクセストークンを提供します（credential.Cacheが実装）。
type CredentialProvider interface {
	Get(ctx context.Context) (credential.Credential, error)
	Invalidate(ctx context.Context, value string)
}

// QuoteClient はKIS APIから国内株式の現在値を取得するQuoteRepository実装です。
type QuoteClient struct {
	cfg     Config
	client  *resty.Client
	creds   CredentialProvider
	limiter ratelimiter.RateLimiterInterface
	now     func() time.Time
}

// QuoteClientがQuoteRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.QuoteRepository = (*QuoteClient)(nil)

// NewQuoteClient はQuoteClientの新しいインスタンスを生成します。limiterはnilでも構いません。
func NewQuoteClient(cfg Config, client *resty.Client, creds CredentialProvider, limiter ratelimiter.RateLimiterInterface) *QuoteClient {
	return &QuoteClient{cfg: cfg, client: client, creds: creds, limiter: limiter, now: time.Now}
}

// GetQuote は銘柄コードの現在値を取得し、数値項目をすべて型付きの値に変換して返します。
// 数値項目が1つでも解析できない場合は部分的なQuoteを返さずにエラーにします。
func (q *QuoteClient) GetQuote(ctx context.Context, code string, candle market.CandleType) (*entity.Quote, error) {
	cred, err := q.creds.Get(ctx)
	if err != nil {
		return nil, err
	}
	if q.limiter != nil {
		if err := q.limiter.WaitIfNeeded(ctx); err != nil {
			return nil, err
		}
	}

	res, err := q.client.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			"authorization": cred.Authorization(),
			"appkey":        q.cfg.AppKey,
			"appsecret":     q.cfg.AppSecret,
			"tr_id":         trIDInquirePrice,
			"custtype":      q.cfg.CustType,
			"content-type":  "application/json; charset=utf-8",
		}).
		SetQueryParams(map[string]string{
			"FID_COND_MRKT_DIV_CODE": marketDivStock,
			"FID_INPUT_ISCD":         code,
		}).
		Get(q.cfg.BaseURL + inquirePricePath)
	if err != nil {
		return nil, transportError(ctx, opInquirePrice, err)
	}

	var body dto.InquirePriceResponse
	decodeErr := json.Unmarshal(res.Body(), &body)

	if res.StatusCode() == http.StatusUnauthorized || body.MsgCd == msgTokenExpired {
		q.creds.Invalidate(ctx, cred.Value)
	}

	if res.IsError() {
		status := res.StatusCode()
		if status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout {
			return nil, upstream.New(upstream.ErrUpstreamTimeout, opInquirePrice, fmt.Sprintf("HTTP %d", status), body.Msg1, nil)
		}
		code := body.MsgCd
		if code == "" {
			code = fmt.Sprintf("HTTP %d", status)
		}
		return nil, upstream.New(upstream.ErrUpstreamRejected, opInquirePrice, code, body.Msg1, nil)
	}
	if decodeErr != nil {
		return nil, upstream.New(upstream.ErrMalformedUpstreamData, opInquirePrice, "", "response is not valid JSON", decodeErr)
	}
	if body.RtCd != resultSuccess {
		return nil, upstream.New(upstream.ErrUpstreamRejected, opInquirePrice, body.MsgCd, body.Msg1, nil)
	}
	if body.Output == nil {
		return nil, upstream.New(upstream.ErrMalformedUpstreamData, opInquirePrice, "", "response has no output", nil)
	}

	quote, err := toQuote(code, candle, *body.Output, q.now())
	if err != nil {
		return nil, upstream.New(upstream.ErrMalformedUpstreamData, opInquirePrice, "", "", err)
	}
	return quote, nil
}

// toQuote は文字列で届いた各項目を解析してQuoteに変換します。
func toQuote(code string, candle market.CandleType, o dto.InquirePriceOutput, observedAt time.Time) (*entity.Quote, error) {
	price, err := parseDecimal("stck_prpr", o.StckPrpr)
	if err != nil {
		return nil, err
	}
	change, err := parseDecimal("prdy_vrss", o.PrdyVrss)
	if err != nil {
		return nil, err
	}
	rate, err := parseDecimal("prdy_ctrt", o.PrdyCtrt)
	if err != nil {
		return nil, err
	}
	volume, err := parseInt("acml_vol", o.AcmlVol)
	if err != nil {
		return nil, err
	}
	open, err := parseDecimal("stck_oprc", o.StckOprc)
	if err != nil {
		return nil, err
	}
	high, err := parseDecimal("stck_hgpr", o.StckHgpr)
	if err != nil {
		return nil, err
	}
	low, err := parseDecimal("stck_lwpr", o.StckLwpr)
	if err != nil {
		return nil, err
	}
	prevClose, err := parseDecimal("stck_sdpr", o.StckSdpr)
	if err != nil {
		return nil, err
	}

	// 下落（4: 下限, 5: 下落）なのに符号なしで届いた場合は負にする
	if sign := strings.TrimSpace(o.PrdyVrssSn); sign == "4" || sign == "5" {
		if change.IsPositive() {
			change = change.Neg()
		}
		if rate.IsPositive() {
			rate = rate.Neg()
		}
	}

	name := strings.TrimSpace(o.PrdtName)
	if name == "" {
		name = strings.TrimSpace(o.HtsKorIsnm)
	}

	return &entity.Quote{
		StockCode:     code,
		StockName:     name,
		CurrentPrice:  price,
		PriceChange:   change,
		ChangeRate:    rate,
		Volume:        volume,
		OpenPrice:     open,
		HighPrice:     high,
		LowPrice:      low,
		PreviousClose: prevClose,
		CandleType:    candle,
		ObservedAt:    observedAt,
	}, nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("parse %s: empty value", field)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return d, nil
}

func parseInt(field, s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse %s: empty value", field)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return n, nil
}

// transportError は通信エラーを分類します。
// 呼び出し元のキャンセルはそのまま返し、それ以外の通信失敗は再試行可能なタイムアウトとして扱います。
func transportError(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return upstream.New(upstream.ErrUpstreamTimeout, op, "", "request timed out", err)
	}
	return upstream.New(upstream.ErrUpstreamTimeout, op, "", "transport failure", err)
}
