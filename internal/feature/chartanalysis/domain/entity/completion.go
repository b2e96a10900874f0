package entity

// Completion はビジョンモデルの1回分の回答です。
type Completion struct {
	Text         string
	FinishReason string
	Truncated    bool // 出力長の上限で切れた（テキストは利用可能）
	Model        string
	Usage        TokenUsage
}

// TokenUsage はモデル呼び出しのトークン消費量です。
type TokenUsage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}
