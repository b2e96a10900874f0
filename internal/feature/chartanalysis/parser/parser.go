package parser

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/domain/entity"
)

var (
	headingMarker = regexp.MustCompile(`^#{1,6}\s*`)
	listMarker    = regexp.MustCompile(`^(?:[-*•·]|\d{1,2}[.)])\s+`)
	ruleLine      = regexp.MustCompile(`^(?:-{3,}|\*{3,}|_{3,})$`)
	jsonFence     = regexp.MustCompile("(?s)^```(?:json|JSON)?\\s*\\n(.*?)\\n?```$")
)

// Parser extracts labeled sections. It holds no mutable state and is safe for concurrent use.
type Parser struct {
	labels []label
	keys   map[string]Field // normalized label or field key -> field, for JSON answers
}

// New builds a Parser from rules.
func New(rules Rules) *Parser {
	p := &Parser{labels: rules.compile(), keys: map[string]Field{}}
	for f := Field(0); f < fieldCount; f++ {
		p.keys[normalizeKey(fieldKeys[f])] = f
	}
	for _, l := range p.labels {
		p.keys[normalizeKey(l.text)] = l.field
	}
	return p
}

// Default returns a Parser with DefaultRules.
func Default() *Parser {
	return New(DefaultRules())
}

// Parse never fails. When no section label is recognized the whole input becomes the summary.
func (p *Parser) Parse(raw string) entity.AnalysisResult {
	if res, ok := p.parseJSON(raw); ok {
		return res
	}

	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	strong := p.strongFields(lines)
	var (
		sections [fieldCount][]string
		seen     [fieldCount]bool
		preamble []string
		current  = Field(-1)
		found    bool
	)

	for _, line := range lines {
		if ruleLine.MatchString(strings.TrimSpace(line)) {
			continue
		}
		if m, ok := p.match(line); ok && opens(m, current, strong) {
			f := m.field
			found = true
			current = f
			if seen[f] && len(sections[f]) > 0 {
				// 同じ見出しが繰り返された場合は追記する
				sections[f] = append(sections[f], "")
			}
			seen[f] = true
			if m.rest != "" {
				sections[f] = append(sections[f], m.rest)
			}
			continue
		}
		if current < 0 {
			preamble = append(preamble, line)
			continue
		}
		sections[current] = append(sections[current], line)
	}

	if !found {
		return entity.AnalysisResult{Summary: raw, KeyPoints: []string{}}
	}

	res := entity.AnalysisResult{
		Pattern:         joinSection(sections[FieldPattern]),
		Trend:           joinSection(sections[FieldTrend]),
		SupportLevel:    joinSection(sections[FieldSupportLevel]),
		ResistanceLevel: joinSection(sections[FieldResistanceLevel]),
		VolumeAnalysis:  joinSection(sections[FieldVolumeAnalysis]),
		TradingOpinion:  joinSection(sections[FieldTradingOpinion]),
		Summary:         joinSection(sections[FieldSummary]),
		KeyPoints:       splitKeyPoints(sections[FieldKeyPoints]),
		RiskLevel:       joinSection(sections[FieldRiskLevel]),
	}
	if !seen[FieldSummary] {
		res.Summary = joinSection(preamble)
	}
	return res
}

// headingMatch is a line that looks like a section label.
type headingMatch struct {
	field  Field
	rest   string // text after the label and separator
	listed bool   // the line starts with a list marker
	strong bool   // a multi-word label, or a label set off by a heading marker or emphasis
}

// opens decides whether a matched label starts a section at this point.
// Inside Key Points every list item stays an item. A bare one-word label ("Risk:") is
// prose when the same field is introduced elsewhere by a strong label ("Risk Level:").
func opens(m headingMatch, current Field, strong [fieldCount]bool) bool {
	if current == FieldKeyPoints && m.listed {
		return false
	}
	return m.strong || !strong[m.field]
}

// strongFields reports which fields are introduced by a strong label somewhere in the text.
func (p *Parser) strongFields(lines []string) [fieldCount]bool {
	var strong [fieldCount]bool
	current := Field(-1)
	for _, line := range lines {
		m, ok := p.match(line)
		if !ok || (current == FieldKeyPoints && m.listed) {
			continue
		}
		current = m.field
		if m.strong {
			strong[m.field] = true
		}
	}
	return strong
}

// match reports whether line has the shape of a section label.
func (p *Parser) match(line string) (headingMatch, bool) {
	s := strings.TrimSpace(line)
	if s == "" {
		return headingMatch{}, false
	}

	headed := headingMarker.MatchString(s)
	s = headingMarker.ReplaceAllString(s, "")
	listed := false
	if loc := listMarker.FindStringIndex(s); loc != nil {
		listed = true
		s = s[loc[1]:]
	}
	emphasized := strings.HasPrefix(s, "**") || strings.HasPrefix(s, "__")
	s = strings.TrimLeft(s, "*_ ")

	for _, l := range p.labels {
		if len(s) < len(l.text) || !strings.EqualFold(s[:len(l.text)], l.text) {
			continue
		}
		rest, ok := afterLabel(strings.TrimLeft(s[len(l.text):], "*_ "))
		if !ok {
			continue
		}
		return headingMatch{
			field:  l.field,
			rest:   rest,
			listed: listed,
			strong: headed || emphasized || strings.ContainsAny(l.text, " \t"),
		}, true
	}
	return headingMatch{}, false
}

// labelSeparators may follow a label. Dashes need a following space so that
// hyphenated words such as "Volume-weighted" are not split.
var labelSeparators = []string{":", "：", "- ", "\u2013 ", "\u2014 "}

// afterLabel returns the value after a separator, or "" when the label ends the line.
func afterLabel(rest string) (string, bool) {
	if rest == "" {
		return "", true
	}
	for _, sep := range labelSeparators {
		if strings.HasPrefix(rest, sep) {
			return cleanValue(rest[len(sep):]), true
		}
	}
	switch strings.TrimRight(rest, " ") {
	case "-", "\u2013", "\u2014":
		return "", true
	}
	return "", false
}

// cleanValue trims the text following a label.
func cleanValue(s string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "*_"))
}

// joinSection trims blank edges and joins the remaining lines.
func joinSection(lines []string) string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if start == end {
		return ""
	}
	if end-start == 1 {
		return unwrapEmphasis(strings.TrimSpace(lines[start]))
	}
	out := make([]string, 0, end-start)
	for _, l := range lines[start:end] {
		out = append(out, strings.TrimRight(l, " \t"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func unwrapEmphasis(s string) string {
	for _, m := range []string{"**", "__"} {
		if len(s) > 2*len(m) && strings.HasPrefix(s, m) && strings.HasSuffix(s, m) {
			return strings.TrimSpace(s[len(m) : len(s)-len(m)])
		}
	}
	return s
}

// splitKeyPoints splits a section into items on list markers. Unmarked lines continue the previous item.
func splitKeyPoints(lines []string) []string {
	items := []string{}
	open := false
	for _, line := range lines {
		s := strings.TrimSpace(line)
		if s == "" || ruleLine.MatchString(s) {
			open = false
			continue
		}
		if loc := listMarker.FindStringIndex(s); loc != nil {
			items = append(items, plainLead(strings.TrimSpace(s[loc[1]:])))
			open = true
			continue
		}
		if open {
			items[len(items)-1] += " " + s
			continue
		}
		items = append(items, s)
		open = true
	}
	return items
}

// plainLead drops the emphasis around a leading phrase: "**Volume**: up" becomes "Volume: up".
func plainLead(s string) string {
	for _, m := range []string{"**", "__"} {
		if !strings.HasPrefix(s, m) {
			continue
		}
		end := strings.Index(s[len(m):], m)
		if end <= 0 {
			return s
		}
		return s[len(m):len(m)+end] + s[len(m)+end+len(m):]
	}
	return s
}

// parseJSON accepts an answer that is a single JSON object, optionally fenced.
func (p *Parser) parseJSON(raw string) (entity.AnalysisResult, bool) {
	s := strings.TrimSpace(raw)
	if m := jsonFence.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return entity.AnalysisResult{}, false
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return entity.AnalysisResult{}, false
	}

	var (
		values [fieldCount]any
		found  bool
	)
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if f, ok := p.keys[normalizeKey(k)]; ok && values[f] == nil {
			values[f] = obj[k]
			found = true
		}
	}
	if !found {
		return entity.AnalysisResult{}, false
	}

	return entity.AnalysisResult{
		Pattern:         scalar(values[FieldPattern]),
		Trend:           scalar(values[FieldTrend]),
		SupportLevel:    scalar(values[FieldSupportLevel]),
		ResistanceLevel: scalar(values[FieldResistanceLevel]),
		VolumeAnalysis:  scalar(values[FieldVolumeAnalysis]),
		TradingOpinion:  scalar(values[FieldTradingOpinion]),
		Summary:         scalar(values[FieldSummary]),
		KeyPoints:       list(values[FieldKeyPoints]),
		RiskLevel:       scalar(values[FieldRiskLevel]),
	}, true
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := scalar(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func list(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s := scalar(e); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return splitKeyPoints(strings.Split(t, "\n"))
	default:
		return []string{}
	}
}

// normalizeKey folds case and drops separators so that "Support Level", "support_level"
// and "supportLevel" compare equal.
func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
