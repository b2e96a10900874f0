package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/adapters/openai"
	"github.com/yangmw7/TradeVision-sub001/internal/platform/externalapi/kis"
)

func TestNewVisionAnalyzer(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	v, err := NewVisionAnalyzer(context.Background(), "")
	require.NoError(t, err)
	assert.IsType(t, &openai.ChartAnalyzer{}, v)

	_, err = NewVisionAnalyzer(context.Background(), "claude")
	assert.Error(t, err)

	t.Setenv("OPENAI_API_KEY", "")
	_, err = NewVisionAnalyzer(context.Background(), "OpenAI")
	assert.Error(t, err)
}

func TestNewTextHinter_Disabled(t *testing.T) {
	t.Setenv("OCR_HINT_ENABLED", "false")

	h, closer, err := NewTextHinter(context.Background())
	require.NoError(t, err)
	assert.Nil(t, h)
	assert.Nil(t, closer)
}

func TestNewParser(t *testing.T) {
	t.Parallel()

	p, err := NewParser("")
	require.NoError(t, err)
	assert.Equal(t, "Flag", p.Parse("Pattern: Flag").Pattern)

	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pattern": ["Formation"]}`), 0o600))
	p, err = NewParser(path)
	require.NoError(t, err)
	assert.Equal(t, "Wedge", p.Parse("Formation: Wedge").Pattern)

	_, err = NewParser(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNewQuoteRepository_WithoutRedis(t *testing.T) {
	t.Parallel()

	repo := NewQuoteRepository(nil, kis.Config{BaseURL: "http://127.0.0.1:1", RatePerSecond: 15})
	assert.NotNil(t, repo)
}
