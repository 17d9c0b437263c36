package queryeditor

import (
	"fmt"
	"strings"
)

const (
	// SeriesFetchedWarning is shown when the backend selected no series at all.
	SeriesFetchedWarning = "No match! This query hasn't selected any time series from database. " +
		"Either the requested metrics are missing in the database, or there is a typo in series selector."

	// PartialWarning is shown when the backend marked the response as partial.
	PartialWarning = "The shown results are marked as PARTIAL. " +
		"The result is marked as partial if one or more vmstorage nodes failed to respond to the query."
)

// Stats carries execution statistics of the last query. Nil fields are
// values the backend did not report.
type Stats struct {
	SeriesFetched     *string
	ResultLength      *int
	IsPartial         *bool
	ExecutionTimeMsec *int
}

// warningRule pairs a predicate over stats with the message it emits.
type warningRule struct {
	show func(stats *Stats) bool
	text string
}

// warningRules is evaluated in order; every matching rule contributes its text.
var warningRules = []warningRule{
	{show: noSeriesFetched, text: SeriesFetchedWarning},
	{show: partialResult, text: PartialWarning},
}

func noSeriesFetched(stats *Stats) bool {
	if stats.SeriesFetched == nil || *stats.SeriesFetched != "0" {
		return false
	}
	return stats.ResultLength == nil || *stats.ResultLength == 0
}

func partialResult(stats *Stats) bool {
	return stats.IsPartial != nil && *stats.IsPartial
}

// ComputeWarning returns the concatenated warning text for stats, or an empty
// string when stats is nil.
func ComputeWarning(stats *Stats) string {
	if stats == nil {
		return ""
	}

	var sb strings.Builder
	for _, rule := range warningRules {
		if rule.show(stats) {
			sb.WriteString(rule.text)
		}
	}
	return sb.String()
}

// ComputeLabel appends the execution time to base when stats are present.
func ComputeLabel(base string, stats *Stats) string {
	if stats == nil {
		return base
	}

	elapsed := 0
	if stats.ExecutionTimeMsec != nil {
		elapsed = *stats.ExecutionTimeMsec
	}
	return fmt.Sprintf("%s (%dms)", base, elapsed)
}
