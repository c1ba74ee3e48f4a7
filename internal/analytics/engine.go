package analytics

import (
	"fmt"
	"math"

	"github.com/chemviz/equipment-api/internal/domain"
)

// DefaultBins is the histogram bin count used when none is configured.
const DefaultBins = 10

// Engine computes derived statistics over one dataset's records. It is
// a pure transform: it never mutates its input and never fails for
// well-formed records. Unit labels are supplied by configuration, not
// derived from the data.
type Engine struct {
	bins  int
	units map[string]string
}

// NewEngine creates an engine with the given histogram bin count and
// metric unit lookup (flowrate, pressure, temperature).
func NewEngine(bins int, units map[string]string) *Engine {
	if bins <= 0 {
		bins = DefaultBins
	}
	unitCopy := make(map[string]string, len(units))
	for metric, label := range units {
		unitCopy[metric] = label
	}
	return &Engine{bins: bins, units: unitCopy}
}

// Compute derives a complete snapshot from the given records. An empty
// input yields a snapshot with zero counts and empty collections.
func (e *Engine) Compute(records []domain.EquipmentRecord) domain.AnalyticsSnapshot {
	if len(records) == 0 {
		return domain.AnalyticsSnapshot{
			Summary:          domain.Summary{Units: e.unitLabels()},
			TypeDistribution: map[string]int{},
			Histogram:        domain.Histogram{Bins: []float64{}, Counts: []int{}, Labels: []string{}, Unit: e.units[domain.FieldFlowrate]},
			Scatter:          []domain.ScatterPoint{},
			Table:            []domain.TableRow{},
		}
	}

	return domain.AnalyticsSnapshot{
		Summary:          e.summary(records),
		TypeDistribution: typeDistribution(records),
		Histogram:        e.histogram(records),
		Scatter:          scatter(records),
		Table:            table(records),
	}
}

func (e *Engine) summary(records []domain.EquipmentRecord) domain.Summary {
	flow := metricSummary(records, func(r domain.EquipmentRecord) float64 { return r.Flowrate })
	pressure := metricSummary(records, func(r domain.EquipmentRecord) float64 { return r.Pressure })
	temperature := metricSummary(records, func(r domain.EquipmentRecord) float64 { return r.Temperature })

	return domain.Summary{
		TotalCount:  len(records),
		Flowrate:    flow,
		Pressure:    pressure,
		Temperature: temperature,
		Units:       e.unitLabels(),
	}
}

func metricSummary(records []domain.EquipmentRecord, metric func(domain.EquipmentRecord) float64) domain.MetricSummary {
	min := metric(records[0])
	max := min
	sum := 0.0
	for _, record := range records {
		value := metric(record)
		sum += value
		if value < min {
			min = value
		}
		if value > max {
			max = value
		}
	}
	return domain.MetricSummary{
		Avg: round2(sum / float64(len(records))),
		Min: round2(min),
		Max: round2(max),
	}
}

func typeDistribution(records []domain.EquipmentRecord) map[string]int {
	distribution := make(map[string]int)
	for _, record := range records {
		distribution[record.Type]++
	}
	return distribution
}

// histogram bins the flowrate metric into equal-width bins spanning
// [min, max]. A degenerate span (all values equal) is widened by 0.5
// on each side so binning never divides by zero.
func (e *Engine) histogram(records []domain.EquipmentRecord) domain.Histogram {
	lo := records[0].Flowrate
	hi := lo
	for _, record := range records {
		if record.Flowrate < lo {
			lo = record.Flowrate
		}
		if record.Flowrate > hi {
			hi = record.Flowrate
		}
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	width := (hi - lo) / float64(e.bins)
	edges := make([]float64, e.bins+1)
	for i := range edges {
		edges[i] = lo + width*float64(i)
	}
	edges[e.bins] = hi

	counts := make([]int, e.bins)
	for _, record := range records {
		bin := int((record.Flowrate - lo) / width)
		if bin >= e.bins {
			bin = e.bins - 1 // top edge is inclusive
		}
		if bin < 0 {
			bin = 0
		}
		counts[bin]++
	}

	labels := make([]string, e.bins)
	for i := 0; i < e.bins; i++ {
		labels[i] = fmt.Sprintf("%.1f-%.1f", edges[i], edges[i+1])
	}

	return domain.Histogram{
		Bins:   edges,
		Counts: counts,
		Labels: labels,
		Unit:   e.units[domain.FieldFlowrate],
	}
}

func scatter(records []domain.EquipmentRecord) []domain.ScatterPoint {
	points := make([]domain.ScatterPoint, len(records))
	for i, record := range records {
		points[i] = domain.ScatterPoint{
			X:     round2(record.Pressure),
			Y:     round2(record.Temperature),
			Size:  round2(record.Flowrate),
			Label: record.EquipmentName,
			Type:  record.Type,
		}
	}
	return points
}

func table(records []domain.EquipmentRecord) []domain.TableRow {
	rows := make([]domain.TableRow, len(records))
	for i, record := range records {
		rows[i] = domain.TableRow{
			EquipmentName: record.EquipmentName,
			Type:          record.Type,
			Flowrate:      round2(record.Flowrate),
			Pressure:      round2(record.Pressure),
			Temperature:   round2(record.Temperature),
		}
	}
	return rows
}

func (e *Engine) unitLabels() map[string]string {
	labels := make(map[string]string, len(e.units))
	for metric, label := range e.units {
		labels[metric] = label
	}
	return labels
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
