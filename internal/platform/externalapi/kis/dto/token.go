// Package dto defines data transfer objects for the KIS open API.
package dto

// TokenRequest is the body of POST /oauth2/tokenP.
type TokenRequest struct {
	GrantType string `json:"grant_type"`
	AppKey    string `json:"appkey"`
	AppSecret string `json:"appsecret"`
}

// TokenResponse is a successful access token response.
type TokenResponse struct {
	AccessToken        string `json:"access_token"`
	TokenType          string `json:"token_type"`
	ExpiresIn          int64  `json:"expires_in"`
	AccessTokenExpired string `json:"access_token_token_expired"` // "2006-01-02 15:04:05" in KST
}

// TokenError is returned by the token endpoint on failure.
type TokenError struct {
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}
