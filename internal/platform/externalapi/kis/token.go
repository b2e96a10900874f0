package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yangmw7/TradeVision-sub001/internal/platform/credential"
	"github.com/yangmw7/TradeVision-sub001/internal/platform/externalapi/kis/dto"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/upstream"
)

const (
	tokenPath        = "/oauth2/tokenP"
	tokenExpiryTime  = "2006-01-02 15:04:05"
	opIssueToken     = "kis.token"
	grantCredentials = "client_credentials"
)

// kst はKISが返す時刻のタイムゾーンです（夏時間なし）。
var kst = time.FixedZone("KST", 9*60*60)

// TokenIssuer はKISのアクセストークン発行エンドポイントを呼び出すcredential.Issuer実装です。
type TokenIssuer struct {
	cfg    Config
	client *resty.Client
	now    func() time.Time
}

// TokenIssuerがcredential.Issuerを実装していることをコンパイル時に検証します。
var _ credential.Issuer = (*TokenIssuer)(nil)

// NewTokenIssuer は指定された設定とRESTクライアントでTokenIssuerを生成します。
func NewTokenIssuer(cfg Config, client *resty.Client) *TokenIssuer {
	return &TokenIssuer{cfg: cfg, client: client, now: time.Now}
}

// Issue は新しいアクセストークンを発行します。
// 有効期限は発行時刻にサーバーが宣言した有効秒数（expires_in）を加えて求めます。
func (t *TokenIssuer) Issue(ctx context.Context) (credential.Credential, error) {
	issuedAt := t.now()

	res, err := t.client.R().
		SetContext(ctx).
		SetBody(dto.TokenRequest{
			GrantType: grantCredentials,
			AppKey:    t.cfg.AppKey,
			AppSecret: t.cfg.AppSecret,
		}).
		Post(t.cfg.BaseURL + tokenPath)
	if err != nil {
		return credential.Credential{}, upstream.New(upstream.ErrCredential, opIssueToken, "", "token request failed", err)
	}

	if res.IsError() {
		var body dto.TokenError
		_ = json.Unmarshal(res.Body(), &body)
		code := body.ErrorCode
		if code == "" {
			code = fmt.Sprintf("HTTP %d", res.StatusCode())
		}
		return credential.Credential{}, upstream.New(upstream.ErrCredential, opIssueToken, code, body.ErrorDescription, nil)
	}

	var body dto.TokenResponse
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return credential.Credential{}, upstream.New(upstream.ErrCredential, opIssueToken, "", "malformed token response", err)
	}
	if strings.TrimSpace(body.AccessToken) == "" {
		return credential.Credential{}, upstream.New(upstream.ErrCredential, opIssueToken, "", "token response has no access_token", nil)
	}

	expiresAt, err := expiry(issuedAt, body)
	if err != nil {
		return credential.Credential{}, upstream.New(upstream.ErrCredential, opIssueToken, "", "token response has no usable lifetime", err)
	}

	return credential.Credential{
		Value:     body.AccessToken,
		Kind:      body.TokenType,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// expiry は有効期限を求めます。expires_inを優先し、欠けている場合のみ絶対時刻を使います。
func expiry(issuedAt time.Time, body dto.TokenResponse) (time.Time, error) {
	if body.ExpiresIn > 0 {
		return issuedAt.Add(time.Duration(body.ExpiresIn) * time.Second), nil
	}
	at, err := time.ParseInLocation(tokenExpiryTime, body.AccessTokenExpired, kst)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse access_token_token_expired %q: %w", body.AccessTokenExpired, err)
	}
	return at, nil
}
