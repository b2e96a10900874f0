package cli

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/domain/entity"
	quote "github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/domain/entity"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))

	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
)

// RenderAnalysis は分析結果を端末表示用に整形します。空の項目は表示しません。
func RenderAnalysis(a *entity.Analysis) string {
	var b strings.Builder

	title := "Chart analysis"
	if a.StockCode != "" {
		title = fmt.Sprintf("%s %s", a.StockCode, a.StockName)
	}
	b.WriteString(titleStyle.Render(strings.TrimSpace(title)))
	b.WriteString("\n")
	if a.Quote != nil {
		b.WriteString(RenderQuote(a.Quote))
		b.WriteString("\n")
	}
	if a.Degraded {
		b.WriteString(warnStyle.Render("quote unavailable; analyzed from the image only"))
		b.WriteString("\n")
	}

	r := a.Result
	var body []string
	for _, f := range []struct{ label, value string }{
		{"Pattern", r.Pattern},
		{"Trend", r.Trend},
		{"Support", r.SupportLevel},
		{"Resistance", r.ResistanceLevel},
		{"Volume", r.VolumeAnalysis},
		{"Opinion", r.TradingOpinion},
		{"Risk", r.RiskLevel},
	} {
		if f.value == "" {
			continue
		}
		body = append(body, labelStyle.Render(f.label+": ")+f.value)
	}
	if r.Summary != "" {
		body = append(body, "", labelStyle.Render("Summary"), r.Summary)
	}
	if len(r.KeyPoints) > 0 {
		body = append(body, "", labelStyle.Render("Key points"))
		for _, p := range r.KeyPoints {
			body = append(body, "  • "+p)
		}
	}
	b.WriteString(boxStyle.Render(strings.Join(body, "\n")))

	if a.Truncated {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("answer was cut off at the output limit"))
	}
	if a.Model != "" {
		b.WriteString("\n")
		b.WriteString(infoStyle.Render("model: " + a.Model))
	}
	return b.String()
}

// RenderQuote は現在値を1行で表示します。上昇は赤、下落は青です。
func RenderQuote(q *quote.Quote) string {
	change := fmt.Sprintf("%s (%s%%)", q.PriceChange.String(), q.ChangeRate.StringFixed(2))
	switch {
	case q.PriceChange.IsPositive():
		change = upStyle.Render("▲ +" + change)
	case q.PriceChange.IsNegative():
		change = downStyle.Render("▼ " + change)
	}
	name := q.StockCode
	if q.StockName != "" {
		name += " " + q.StockName
	}
	return fmt.Sprintf("%s  %s  %s  vol %d", labelStyle.Render(name), q.CurrentPrice.String(), change, q.Volume)
}

// detectContentType は拡張子とファイル内容から画像のメディアタイプを判定します。
func detectContentType(path string, data []byte) (entity.ContentType, error) {
	if ct, err := entity.ParseContentType(http.DetectContentType(data)); err == nil {
		return ct, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return entity.ContentTypePNG, nil
	case ".jpg", ".jpeg":
		return entity.ContentTypeJPEG, nil
	case ".webp":
		return entity.ContentTypeWEBP, nil
	case ".gif":
		return entity.ContentTypeGIF, nil
	}
	return "", fmt.Errorf("%s: not a supported image", path)
}
