package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/domain/entity"
	quote "github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/market"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestReadSymbolsCSV(t *testing.T) {
	t.Run("success: header skipped", func(t *testing.T) {
		in := "\ufeffcode,name,market\n005930,삼성전자,KOSPI\n 035720, 카카오 ,KOSPI\n"
		got, err := ReadSymbolsCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "005930", got[0].Code)
		assert.Equal(t, "카카오", got[1].Name)
		assert.Equal(t, 1, got[1].SortKey)
	})

	t.Run("success: no header", func(t *testing.T) {
		got, err := ReadSymbolsCSV(strings.NewReader("000660,SK하이닉스,KOSPI\n"))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "KOSPI", got[0].Market)
	})

	t.Run("error: wrong column count", func(t *testing.T) {
		_, err := ReadSymbolsCSV(strings.NewReader("005930,삼성전자\n"))
		require.Error(t, err)
	})
}

func TestRenderAnalysis(t *testing.T) {
	a := &entity.Analysis{
		StockCode: "005930",
		StockName: "삼성전자",
		Result: entity.AnalysisResult{
			Pattern:   "Double Bottom",
			Summary:   "Rebound expected.",
			KeyPoints: []string{"Volume rising"},
		},
		Quote: &quote.Quote{
			StockCode:    "005930",
			CurrentPrice: decimal.NewFromInt(71000),
			PriceChange:  decimal.NewFromInt(500),
			ChangeRate:   decimal.RequireFromString("0.71"),
			Volume:       1200,
		},
		Truncated: true,
		Model:     "gpt-4o",
	}

	out := RenderAnalysis(a)
	for _, want := range []string{"005930 삼성전자", "Double Bottom", "Rebound expected.", "Volume rising", "71000", "+500 (0.71%)", "cut off", "gpt-4o"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Trend:")
	assert.NotContains(t, out, "quote unavailable")
}

func TestRenderQuote_Down(t *testing.T) {
	q := &quote.Quote{
		StockCode:    "035720",
		CurrentPrice: decimal.NewFromInt(41000),
		PriceChange:  decimal.NewFromInt(-300),
		ChangeRate:   decimal.RequireFromString("-0.73"),
	}
	out := RenderQuote(q)
	assert.Contains(t, out, "▼ -300 (-0.73%)")
}

func TestBuildRequest(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "chart.bin")
	require.NoError(t, os.WriteFile(img, pngHeader, 0o600))

	t.Run("success: content sniffed", func(t *testing.T) {
		req, err := buildRequest(img, "005930", "w", "Beginner")
		require.NoError(t, err)
		assert.Equal(t, entity.ContentTypePNG, req.ContentType)
		assert.Equal(t, market.CandleWeek, req.CandleType)
		assert.Equal(t, entity.LevelBeginner, req.InvestmentLevel)
	})

	t.Run("error: unknown candle", func(t *testing.T) {
		_, err := buildRequest(img, "", "2", "")
		require.Error(t, err)
	})

	t.Run("error: not an image", func(t *testing.T) {
		txt := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o600))
		_, err := buildRequest(txt, "", "D", "")
		require.Error(t, err)
	})

	t.Run("error: missing file", func(t *testing.T) {
		_, err := buildRequest(filepath.Join(dir, "none.png"), "", "D", "")
		require.Error(t, err)
	})
}

func TestRootCmd(t *testing.T) {
	t.Run("error: analyze requires image", func(t *testing.T) {
		root := NewRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs([]string{"analyze"})
		require.Error(t, root.Execute())
	})

	t.Run("error: quote without credentials", func(t *testing.T) {
		t.Setenv("KIS_APP_KEY", "")
		root := NewRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs([]string{"quote", "005930", "--timeout", time.Second.String()})
		require.Error(t, root.Execute())
		assert.Contains(t, out.String(), "KIS_APP_KEY")
	})
}
