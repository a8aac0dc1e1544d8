package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a reply carries no JSON object.
var ErrNoJSON = errors.New("reply contains no JSON object")

// ChartTypes lists the chart kinds a suggestion may name.
var ChartTypes = []string{"bar", "line", "pie", "scatter"}

// ChartSuggestion is the chart the model proposes for a natural-language request.
type ChartSuggestion struct {
	ChartType   string `json:"chart_type"`
	XColumn     string `json:"x_column,omitempty"`
	YColumn     string `json:"y_column,omitempty"`
	Title       string `json:"title"`
	Aggregation string `json:"aggregation,omitempty"`
	GroupBy     string `json:"groupby,omitempty"`
}

// ParseChartSuggestion extracts the first JSON object in content. Column
// references that do not name one of columns are dropped.
func ParseChartSuggestion(content string, columns []string) (*ChartSuggestion, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, ErrNoJSON
	}
	var s ChartSuggestion
	if err := json.Unmarshal([]byte(content[start:end+1]), &s); err != nil {
		return nil, fmt.Errorf("decode chart suggestion: %w", err)
	}

	s.ChartType = strings.ToLower(strings.TrimSpace(s.ChartType))
	valid := false
	for _, ct := range ChartTypes {
		if s.ChartType == ct {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("unsupported chart type %q", s.ChartType)
	}

	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}
	for _, ref := range []*string{&s.XColumn, &s.YColumn, &s.GroupBy} {
		if !known[*ref] {
			*ref = ""
		}
	}
	if strings.EqualFold(s.Aggregation, "none") {
		s.Aggregation = ""
	}
	return &s, nil
}

// ParseInsights returns the bullet items of a reply, or the trimmed reply as a
// single item when it has no bullets.
func ParseInsights(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		item, ok := bulletText(line)
		if ok && item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 && strings.TrimSpace(content) != "" {
		out = append(out, strings.TrimSpace(content))
	}
	return out
}

func bulletText(line string) (string, bool) {
	for _, p := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(line[len(p):]), true
		}
	}
	// numbered: "1." or "1)"
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:]), true
	}
	return "", false
}
