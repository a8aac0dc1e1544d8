package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages(t *testing.T) {
	msgs := BuildMessages("What trends do you see?", "Q3 sales for EMEA", []HistoryMessage{
		{Role: "user", Content: "hi"},
		{Content: "no role"},
		{Role: "assistant", Content: "hello"},
	})
	require.Len(t, msgs, 5)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Q3 sales for EMEA")
	assert.Equal(t, "user", msgs[2].Role)
	assert.Equal(t, "assistant", msgs[3].Role)
	assert.Equal(t, "user", msgs[4].Role)
	assert.Equal(t, "What trends do you see?", msgs[4].Content)
}

func TestBuildMessagesWithoutContext(t *testing.T) {
	msgs := BuildMessages("hello", "   ", nil)
	require.Len(t, msgs, 2)
	assert.Equal(t, genericSystemPrompt, msgs[0].Content)
}

func TestPrompts(t *testing.T) {
	p, err := AnalyzeRequestPrompt("sales by region", []string{"region", "sales"})
	require.NoError(t, err)
	assert.Contains(t, p, "Request: sales by region")
	assert.Contains(t, p, "Available data columns: region, sales")

	long := strings.Repeat("abcd", MaxPreviewTokens*2)
	p, err = InsightsPrompt([]string{"a"}, 42, long)
	require.NoError(t, err)
	assert.Contains(t, p, "Row count: 42")
	assert.Less(t, len(p), len(long))
}

func TestParseChartSuggestion(t *testing.T) {
	reply := "Sure!\n```json\n{\"chart_type\": \"Bar\", \"x_column\": \"region\", \"y_column\": \"revenue\", \"title\": \"Sales\", \"aggregation\": \"none\", \"groupby\": \"region\"}\n```"
	s, err := ParseChartSuggestion(reply, []string{"region", "sales"})
	require.NoError(t, err)
	assert.Equal(t, "bar", s.ChartType)
	assert.Equal(t, "region", s.XColumn)
	assert.Empty(t, s.YColumn, "unknown column is dropped")
	assert.Empty(t, s.Aggregation)
	assert.Equal(t, "region", s.GroupBy)

	_, err = ParseChartSuggestion("no json here", nil)
	assert.ErrorIs(t, err, ErrNoJSON)

	_, err = ParseChartSuggestion(`{"chart_type": "radar"}`, nil)
	assert.Error(t, err)

	_, err = ParseChartSuggestion(`{"chart_type": }`, nil)
	assert.Error(t, err)
}

func TestParseInsights(t *testing.T) {
	got := ParseInsights("Here you go:\n- Sales rose 10%\n* West leads\n2. Returns are flat\n")
	assert.Equal(t, []string{"Sales rose 10%", "West leads", "Returns are flat"}, got)

	assert.Equal(t, []string{"Just one thought."}, ParseInsights("  Just one thought. "))
	assert.Empty(t, ParseInsights(""))
}
