// Package parser turns the free-form answer of a vision model into an AnalysisResult.
//
// Sections are found by heading labels ("Pattern:", "## 추세", "**Risk Level**: ...").
// The label synonyms are data (Rules), so deployments can extend them without code changes.
package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Field identifies one section of the structured result.
type Field int

const (
	FieldPattern Field = iota
	FieldTrend
	FieldSupportLevel
	FieldResistanceLevel
	FieldVolumeAnalysis
	FieldTradingOpinion
	FieldSummary
	FieldKeyPoints
	FieldRiskLevel
	fieldCount
)

// fieldKeys are the keys used in rules files and JSON answers.
var fieldKeys = [fieldCount]string{
	"pattern",
	"trend",
	"supportLevel",
	"resistanceLevel",
	"volumeAnalysis",
	"tradingOpinion",
	"summary",
	"keyPoints",
	"riskLevel",
}

func (f Field) String() string {
	if f >= 0 && f < fieldCount {
		return fieldKeys[f]
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// Rules maps every field to the labels that introduce its section.
// Matching is case-insensitive; the longest matching label wins.
type Rules struct {
	Labels map[Field][]string
}

// DefaultRules returns English and Korean labels.
func DefaultRules() Rules {
	return Rules{Labels: map[Field][]string{
		FieldPattern:         {"Pattern", "Patterns", "Chart Pattern", "Detected Pattern", "패턴", "차트 패턴"},
		FieldTrend:           {"Trend", "Trend Analysis", "Current Trend", "추세", "추세 분석"},
		FieldSupportLevel:    {"Support", "Support Level", "Support Levels", "지지선", "지지 수준", "지지대"},
		FieldResistanceLevel: {"Resistance", "Resistance Level", "Resistance Levels", "저항선", "저항 수준", "저항대"},
		FieldVolumeAnalysis:  {"Volume", "Volume Analysis", "거래량", "거래량 분석"},
		FieldTradingOpinion:  {"Trading Opinion", "Opinion", "Recommendation", "Trading Strategy", "매매 의견", "투자 의견", "매매 전략"},
		FieldSummary:         {"Summary", "Overall Summary", "Conclusion", "요약", "종합", "종합 의견"},
		FieldKeyPoints:       {"Key Points", "Key Takeaways", "Highlights", "핵심 포인트", "주요 포인트", "핵심 요약"},
		FieldRiskLevel:       {"Risk", "Risk Level", "Risk Assessment", "리스크", "위험도", "리스크 수준", "위험 수준"},
	}}
}

// LoadRules reads a JSON rules file of the form {"pattern": ["Pattern", "패턴"], ...}.
// Fields present in the file replace the default labels of that field; absent fields keep the defaults.
func LoadRules(path string) (Rules, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read label rules: %w", err)
	}
	return ParseRules(b)
}

// ParseRules is LoadRules over an in-memory document.
func ParseRules(b []byte) (Rules, error) {
	var raw map[string][]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return Rules{}, fmt.Errorf("decode label rules: %w", err)
	}

	rules := DefaultRules()
	for key, labels := range raw {
		f, ok := fieldByKey(key)
		if !ok {
			return Rules{}, fmt.Errorf("label rules: unknown field %q", key)
		}
		cleaned := make([]string, 0, len(labels))
		for _, l := range labels {
			if l = strings.TrimSpace(l); l != "" {
				cleaned = append(cleaned, l)
			}
		}
		if len(cleaned) == 0 {
			return Rules{}, fmt.Errorf("label rules: field %q has no labels", key)
		}
		rules.Labels[f] = cleaned
	}
	return rules, nil
}

func fieldByKey(key string) (Field, bool) {
	for f := Field(0); f < fieldCount; f++ {
		if strings.EqualFold(fieldKeys[f], key) {
			return f, true
		}
	}
	return 0, false
}

// label is one synonym bound to its field.
type label struct {
	text  string
	field Field
}

// compile flattens the rules into labels ordered longest first.
func (r Rules) compile() []label {
	var out []label
	for f, syns := range r.Labels {
		for _, s := range syns {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, label{text: s, field: f})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].text) != len(out[j].text) {
			return len(out[i].text) > len(out[j].text)
		}
		if out[i].field != out[j].field {
			return out[i].field < out[j].field
		}
		return out[i].text < out[j].text
	})
	return out
}
