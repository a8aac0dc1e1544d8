package chat

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/jabiru-analytics/jabiru/internal/utils"
)

// MaxPreviewTokens bounds the dataset excerpt embedded in the insights prompt.
const MaxPreviewTokens = 1500

var analyzeRequestTmpl = template.Must(template.New("analyze_request").Parse(`
Analyze the following natural language request for creating a data visualization:

Request: {{.Request}}
Available data columns: {{.Columns}}

Provide a JSON response with:
1. chart_type: The type of chart (bar, line, pie, scatter)
2. x_column: The column to use for X axis (if applicable)
3. y_column: The column to use for Y axis (if applicable)
4. title: A descriptive title for the chart
5. aggregation: Any aggregation needed (sum, avg, count, none)
6. groupby: Column to group by (if applicable)

Respond only with valid JSON.
`))

var insightsTmpl = template.Must(template.New("generate_insights").Parse(`
Given the following data summary, generate 2-3 key insights:

Data columns: {{.Columns}}
Row count: {{.RowCount}}
Data preview: {{.Preview}}

Provide insights in a bulleted list format.
`))

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return b.String(), nil
}

// AnalyzeRequestPrompt asks the model to map a request onto a chart over columns.
func AnalyzeRequestPrompt(request string, columns []string) (string, error) {
	return render(analyzeRequestTmpl, struct {
		Request string
		Columns string
	}{request, strings.Join(columns, ", ")})
}

// InsightsPrompt asks the model for a few insights about a dataset; preview is
// truncated to MaxPreviewTokens.
func InsightsPrompt(columns []string, rowCount int, preview string) (string, error) {
	return render(insightsTmpl, struct {
		Columns  string
		RowCount int
		Preview  string
	}{strings.Join(columns, ", "), rowCount, utils.TruncateToTokenLimit(preview, MaxPreviewTokens)})
}
