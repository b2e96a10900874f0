// Package kis provides a client for the Korea Investment & Securities open API
// (access token issuance and domestic stock quotes).
package kis

import (
	"time"

	"github.com/yangmw7/TradeVision-sub001/internal/platform/config"
)

// Config holds configuration for the KIS open API client.
type Config struct {
	AppKey        string        // App key issued by KIS
	AppSecret     string        // App secret issued by KIS
	BaseURL       string        // Base URL (e.g., "https://openapi.koreainvestment.com:9443")
	CustType      string        // Customer type header, "P" for individuals
	Timeout       time.Duration // HTTP request timeout
	RatePerSecond float64       // Quote requests allowed per second
	TokenMargin   time.Duration // Safety margin before token expiry
	Namespace     string        // Redis namespace for the shared token
}

// LoadConfig loads KIS configuration from environment variables.
func LoadConfig() Config {
	return Config{
		AppKey:        config.String("KIS_APP_KEY", ""),
		AppSecret:     config.String("KIS_APP_SECRET", ""),
		BaseURL:       config.String("KIS_BASE_URL", "https://openapi.koreainvestment.com:9443"),
		CustType:      config.String("KIS_CUST_TYPE", "P"),
		Timeout:       config.Duration("KIS_TIMEOUT", 10*time.Second),
		RatePerSecond: config.Float("KIS_RATE_PER_SECOND", 15),
		TokenMargin:   config.Duration("KIS_TOKEN_MARGIN", 60*time.Second),
		Namespace:     config.String("KIS_TOKEN_NAMESPACE", "kis"),
	}
}
