package models

// Status is the outcome tag of a single analyzer run.
type Status string

const (
	StatusOK   Status = "OK"
	StatusInfo Status = "INFO"
	StatusFail Status = "FAIL"
)

// Chart types understood by the dashboard.
const (
	ChartBar   = "bar"
	ChartLine  = "line"
	ChartPie   = "pie"
	ChartTable = "table"
)

// AnalysisResult is the partial output of one analyzer, and also the
// consolidated output of the orchestrator.
type AnalysisResult struct {
	Status  Status  `json:"status"`
	Summary string  `json:"summary"`
	Charts  []Chart `json:"visualization_data"`
	Tips    []Tip   `json:"tips"`
	// Topics carries topic data for reuse by the strategic-insight step.
	Topics []Topic `json:"raw_topic_data,omitempty"`
}

// Usable reports whether the result may be merged into a composite answer.
func (r AnalysisResult) Usable() bool {
	return r.Status == StatusOK || r.Status == StatusInfo
}

// Chart describes one visualization.
type Chart struct {
	Title     string    `json:"title"`
	Labels    []string  `json:"labels"`
	Datasets  []Dataset `json:"datasets"`
	ChartType string    `json:"chart_type"`
}

// Dataset is one series of a chart. Table charts use Rows instead of Data.
type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data,omitempty"`
	Rows            [][]any   `json:"rows,omitempty"`
	Type            string    `json:"type"`
	BackgroundColor []string  `json:"backgroundColor,omitempty"`
	BorderColor     string    `json:"borderColor,omitempty"`
}

// Tip is a titled recommendation shown next to the summary.
type Tip struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// AnalysisResponse is the shape returned to API callers.
type AnalysisResponse struct {
	Query             string  `json:"query"`
	Summary           string  `json:"summary"`
	Tips              []Tip   `json:"tips"`
	VisualizationData []Chart `json:"visualization_data"`
}

// NewAnalysisResponse converts a consolidated result into the caller shape.
// Nil slices are replaced with empty ones.
func NewAnalysisResponse(query string, r AnalysisResult) AnalysisResponse {
	tips := r.Tips
	if tips == nil {
		tips = []Tip{}
	}
	charts := r.Charts
	if charts == nil {
		charts = []Chart{}
	}
	return AnalysisResponse{
		Query:             query,
		Summary:           r.Summary,
		Tips:              tips,
		VisualizationData: charts,
	}
}
