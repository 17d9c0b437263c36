package app

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/common/model"

	"github.com/atinylittleshell/qline/internal/backend"
)

const maxResultRows = 1000

// FormatResult renders a query result for the results pane, one series per
// line.
func FormatResult(result *backend.Result) string {
	if result == nil {
		return ""
	}

	var lines []string
	switch v := result.Value.(type) {
	case model.Vector:
		for _, sample := range v {
			lines = append(lines, fmt.Sprintf("%s  %s", formatMetric(sample.Metric), formatSample(sample)))
		}
	case model.Matrix:
		for _, stream := range v {
			lines = append(lines, formatStream(stream))
		}
	case *model.Scalar:
		lines = append(lines, v.Value.String())
	case *model.String:
		lines = append(lines, fmt.Sprintf("%q", v.Value))
	}

	if len(lines) > maxResultRows {
		hidden := len(lines) - maxResultRows
		lines = append(lines[:maxResultRows], fmt.Sprintf("… %s more", humanize.Comma(int64(hidden))))
	}
	if len(lines) == 0 {
		return "no data"
	}
	return strings.Join(lines, "\n")
}

// summary is the one-line description shown above the results.
func summary(result *backend.Result, ranAt time.Time) string {
	if result == nil {
		return ""
	}
	count := humanize.Comma(int64(result.Len())) + " series"
	switch result.Value.(type) {
	case *model.Scalar:
		count = "scalar"
	case *model.String:
		count = "string"
	}
	return fmt.Sprintf("%s · %s round trip · %s", count, result.Elapsed.Round(time.Millisecond), humanize.Time(ranAt))
}

func formatMetric(metric model.Metric) string {
	name := string(metric[model.MetricNameLabel])
	names := make([]string, 0, len(metric))
	for label := range metric {
		if label == model.MetricNameLabel {
			continue
		}
		names = append(names, string(label))
	}
	sort.Strings(names)

	pairs := make([]string, len(names))
	for i, label := range names {
		pairs[i] = fmt.Sprintf("%s=%q", label, string(metric[model.LabelName(label)]))
	}
	if len(pairs) == 0 && name != "" {
		return name
	}
	return name + "{" + strings.Join(pairs, ", ") + "}"
}

func formatSample(sample *model.Sample) string {
	if sample.Histogram != nil {
		return sample.Histogram.String()
	}
	return sample.Value.String()
}

func formatStream(stream *model.SampleStream) string {
	n := len(stream.Values) + len(stream.Histograms)
	last := ""
	if len(stream.Values) > 0 {
		last = stream.Values[len(stream.Values)-1].Value.String()
	}
	return fmt.Sprintf("%s  %s samples, last %s", formatMetric(stream.Metric), humanize.Comma(int64(n)), last)
}
