package metrics

import (
	"fmt"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Namespace prefixes every collector registered by the library and the
// content stores.
const Namespace = "dittophotos_"

// FamilySummary condenses one metric family into a single figure.
type FamilySummary struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Help string `json:"help"`

	// Value sums counters and gauges across label sets. For histograms it
	// is the total number of observations.
	Value float64 `json:"value"`

	// Sum is the total of all observed values; histograms only.
	Sum float64 `json:"sum,omitempty"`

	// Series breaks Value down by label set, keyed "k=v,k=v".
	Series map[string]float64 `json:"series,omitempty"`
}

// Summarize gathers g and condenses every family whose name starts with
// prefix, sorted by name.
func Summarize(g prometheus.Gatherer, prefix string) ([]FamilySummary, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	out := make([]FamilySummary, 0, len(families))
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), prefix) {
			continue
		}

		fs := FamilySummary{
			Name: mf.GetName(),
			Type: strings.ToLower(mf.GetType().String()),
			Help: mf.GetHelp(),
		}
		for _, m := range mf.GetMetric() {
			v, sum := sampleValue(mf.GetType(), m)
			fs.Value += v
			fs.Sum += sum
			if key := labelKey(m.GetLabel()); key != "" {
				if fs.Series == nil {
					fs.Series = make(map[string]float64)
				}
				fs.Series[key] += v
			}
		}
		out = append(out, fs)
	}

	slices.SortFunc(out, func(a, b FamilySummary) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func sampleValue(t dto.MetricType, m *dto.Metric) (value, sum float64) {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue(), 0
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue(), 0
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return float64(h.GetSampleCount()), h.GetSampleSum()
	case dto.MetricType_SUMMARY:
		s := m.GetSummary()
		return float64(s.GetSampleCount()), s.GetSampleSum()
	default:
		return m.GetUntyped().GetValue(), 0
	}
}

func labelKey(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, lp := range labels {
		parts = append(parts, lp.GetName()+"="+lp.GetValue())
	}
	slices.Sort(parts)
	return strings.Join(parts, ",")
}
