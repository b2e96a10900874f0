package usecase

import (
	"fmt"
	"strings"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/domain/entity"
	quote "github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/market"
)

// maxHintRunes はプロンプトに含めるOCRテキストの上限（rune数）です。
const maxHintRunes = 500

// PromptInput はプロンプトに埋め込む情報です。空の項目は出力しません。
type PromptInput struct {
	StockCode       string
	StockName       string
	CandleType      market.CandleType
	InvestmentLevel entity.InvestmentLevel
	Quote           *quote.Quote
	ChartText       string
}

var levelGuidance = map[entity.InvestmentLevel]string{
	entity.LevelBeginner:     "The reader is a beginner: explain each term briefly and avoid jargon.",
	entity.LevelIntermediate: "The reader is an intermediate investor: be concise and practical.",
	entity.LevelExpert:       "The reader is an experienced trader: be precise and technical, skip basic explanations.",
}

// BuildPrompt は分析指示のテキストを組み立てます。
// 見出しはparser.DefaultRulesの英語ラベルと一致させています。
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString("You are a technical analyst. Analyze the attached stock chart image.\n")
	if g, ok := levelGuidance[in.InvestmentLevel]; ok {
		b.WriteString(g + "\n")
	} else {
		b.WriteString(levelGuidance[entity.LevelIntermediate] + "\n")
	}

	b.WriteString("\nContext:\n")
	switch {
	case in.StockCode != "" && in.StockName != "":
		fmt.Fprintf(&b, "- Stock: %s (%s)\n", in.StockName, in.StockCode)
	case in.StockCode != "":
		fmt.Fprintf(&b, "- Stock code: %s\n", in.StockCode)
	case in.StockName != "":
		fmt.Fprintf(&b, "- Stock: %s\n", in.StockName)
	}
	fmt.Fprintf(&b, "- Candle: %s\n", in.CandleType.Label())

	if q := in.Quote; q != nil {
		fmt.Fprintf(&b, "- Current price: %s (change %s, %s%%)\n", q.CurrentPrice.String(), signed(q.PriceChange.String()), signed(q.ChangeRate.String()))
		fmt.Fprintf(&b, "- Today: open %s, high %s, low %s, previous close %s, volume %d\n",
			q.OpenPrice.String(), q.HighPrice.String(), q.LowPrice.String(), q.PreviousClose.String(), q.Volume)
	}
	if hint := truncateRunes(strings.TrimSpace(in.ChartText), maxHintRunes); hint != "" {
		fmt.Fprintf(&b, "- Text detected on the chart: %s\n", strings.Join(strings.Fields(hint), " "))
	}

	b.WriteString(`
Answer with exactly these labeled sections, one per line, in this order:
Pattern: <detected chart pattern>
Trend: <Upward | Downward | Sideways, with a short reason>
Support Level: <price>
Resistance Level: <price>
Volume Analysis: <one or two sentences>
Trading Opinion: <buy / hold / sell with conditions>
Summary: <two or three sentences>
Key Points:
- <point>
- <point>
Risk Level: <Low | Medium | High>
If something cannot be determined from the image, leave the section empty instead of guessing.`)

	return b.String()
}

func signed(s string) string {
	if strings.HasPrefix(s, "-") || s == "0" {
		return s
	}
	return "+" + s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
