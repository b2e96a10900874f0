// Package http は外部API呼び出し用のHTTPクライアントを提供します。
package http

import (
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// NewHTTPClient は外部API（証券会社・ビジョンモデル）呼び出し用のHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: 環境変数（HTTP_PROXYなど）に従う
//   - Dialer.Timeout: TCP接続タイムアウト（5秒）
//   - MaxIdleConnsPerHost: 同一ホストへの接続を再利用する（証券会社APIは1ホストのため既定の2では足りない）
//   - TLSHandshakeTimeout: HTTPSハンドシェイクの最大時間
//   - Client.Timeout: リクエスト全体のタイムアウト（0の場合は無制限、呼び出し側のcontextに任せる）
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}

// NewRestyClient はNewHTTPClientの上にJSON APIクライアントを構成します。
// 再試行はユースケース側で行うため、restyの自動再試行は使いません。
func NewRestyClient(timeout time.Duration) *resty.Client {
	return resty.NewWithClient(NewHTTPClient(timeout)).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
}
