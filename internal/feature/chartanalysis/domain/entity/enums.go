package entity

import (
	"fmt"
	"strings"
)

// FeedbackKind は分析結果に対するユーザーの評価です。
type FeedbackKind string

const (
	FeedbackNone    FeedbackKind = "none"
	FeedbackLike    FeedbackKind = "like"
	FeedbackDislike FeedbackKind = "dislike"
)

var feedbackLabels = map[FeedbackKind]string{
	FeedbackNone:    "No feedback",
	FeedbackLike:    "Helpful",
	FeedbackDislike: "Not helpful",
}

// ParseFeedbackKind は文字列をFeedbackKindに変換します。
func ParseFeedbackKind(s string) (FeedbackKind, error) {
	k := FeedbackKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := feedbackLabels[k]; !ok {
		return "", fmt.Errorf("unknown feedback %q", s)
	}
	return k, nil
}

// Label は表示用のラベルを返します。
func (k FeedbackKind) Label() string {
	if l, ok := feedbackLabels[k]; ok {
		return l
	}
	return string(k)
}

// ContentType はアップロードできるチャート画像のメディアタイプです。
type ContentType string

const (
	ContentTypePNG  ContentType = "image/png"
	ContentTypeJPEG ContentType = "image/jpeg"
	ContentTypeWEBP ContentType = "image/webp"
	ContentTypeGIF  ContentType = "image/gif"
)

var contentTypeExt = map[ContentType]string{
	ContentTypePNG:  ".png",
	ContentTypeJPEG: ".jpg",
	ContentTypeWEBP: ".webp",
	ContentTypeGIF:  ".gif",
}

// ParseContentType はContent-Typeヘッダー値（パラメータ付き可）をContentTypeに変換します。
func ParseContentType(s string) (ContentType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	if v == "image/jpg" {
		v = string(ContentTypeJPEG)
	}
	ct := ContentType(v)
	if _, ok := contentTypeExt[ct]; !ok {
		return "", fmt.Errorf("unsupported content type %q", s)
	}
	return ct, nil
}

// Valid は対応しているメディアタイプかどうかを返します。
func (ct ContentType) Valid() bool {
	_, ok := contentTypeExt[ct]
	return ok
}

// Ext は保存時のファイル拡張子を返します。
func (ct ContentType) Ext() string {
	return contentTypeExt[ct]
}

// InvestmentLevel は利用者の投資経験です。プロンプトの説明の深さを変えます。
type InvestmentLevel string

const (
	LevelBeginner     InvestmentLevel = "beginner"
	LevelIntermediate InvestmentLevel = "intermediate"
	LevelExpert       InvestmentLevel = "expert"
)

var levelLabels = map[InvestmentLevel]string{
	LevelBeginner:     "Beginner",
	LevelIntermediate: "Intermediate",
	LevelExpert:       "Expert",
}

// ParseInvestmentLevel は文字列をInvestmentLevelに変換します。空文字列は空のまま返します。
func ParseInvestmentLevel(s string) (InvestmentLevel, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return "", nil
	}
	l := InvestmentLevel(v)
	if _, ok := levelLabels[l]; !ok {
		return "", fmt.Errorf("unknown investment level %q", s)
	}
	return l, nil
}

// Valid は既知の投資経験かどうかを返します。
func (l InvestmentLevel) Valid() bool {
	_, ok := levelLabels[l]
	return ok
}

// Label は表示用のラベルを返します。
func (l InvestmentLevel) Label() string {
	if v, ok := levelLabels[l]; ok {
		return v
	}
	return string(l)
}
