package domain

// MetricSummary holds the per-metric aggregates of a dataset, rounded
// to two decimal places for presentation.
type MetricSummary struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Summary is the global summary block of an analytics snapshot.
type Summary struct {
	TotalCount  int               `json:"total_count"`
	Flowrate    MetricSummary     `json:"flowrate"`
	Pressure    MetricSummary     `json:"pressure"`
	Temperature MetricSummary     `json:"temperature"`
	Units       map[string]string `json:"units"`
}

// Histogram describes equal-width binning of the flowrate metric.
// Bins holds len(Counts)+1 edges; Labels renders each bin range to one
// decimal place ("12.3-45.6").
type Histogram struct {
	Bins   []float64 `json:"bins"`
	Counts []int     `json:"counts"`
	Labels []string  `json:"bin_labels"`
	Unit   string    `json:"unit"`
}

// ScatterPoint is one record projected for bivariate plotting:
// pressure against temperature with flowrate as the size hint.
type ScatterPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size"`
	Label string  `json:"label"`
	Type  string  `json:"type"`
}

// TableRow is one record projected for tabular display.
type TableRow struct {
	EquipmentName string  `json:"equipment_name"`
	Type          string  `json:"type"`
	Flowrate      float64 `json:"flowrate"`
	Pressure      float64 `json:"pressure"`
	Temperature   float64 `json:"temperature"`
}

// AnalyticsSnapshot is a point-in-time derived view over one dataset's
// records. It is never persisted and never updated in place; consumers
// that need fresher numbers recompute.
type AnalyticsSnapshot struct {
	Summary          Summary        `json:"summary"`
	TypeDistribution map[string]int `json:"type_distribution"`
	Histogram        Histogram      `json:"histogram"`
	Scatter          []ScatterPoint `json:"scatter"`
	Table            []TableRow     `json:"table"`
}
