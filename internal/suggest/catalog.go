package suggest

import (
	"fmt"
	"sort"
	"strings"

	promparser "github.com/prometheus/prometheus/promql/parser"
	"github.com/samber/lo"
)

// ParserOptions configures every PromQL parser in the program. Completions
// only offer functions and aggregations a parser built from it accepts.
var ParserOptions = promparser.Options{
	EnableExperimentalFunctions: true,
}

var aggregations = []Candidate{
	{Value: "sum", Description: "sum over dimensions", Kind: KindAggregation},
	{Value: "min", Description: "minimum over dimensions", Kind: KindAggregation},
	{Value: "max", Description: "maximum over dimensions", Kind: KindAggregation},
	{Value: "avg", Description: "average over dimensions", Kind: KindAggregation},
	{Value: "group", Description: "all values in the result are 1", Kind: KindAggregation},
	{Value: "stddev", Description: "population standard deviation", Kind: KindAggregation},
	{Value: "stdvar", Description: "population standard variance", Kind: KindAggregation},
	{Value: "count", Description: "count number of elements", Kind: KindAggregation},
	{Value: "count_values", Description: "count elements with the same value", Kind: KindAggregation},
	{Value: "bottomk", Description: "smallest k elements by sample value", Kind: KindAggregation},
	{Value: "topk", Description: "largest k elements by sample value", Kind: KindAggregation},
	{Value: "quantile", Description: "φ-quantile over dimensions", Kind: KindAggregation},
}

var experimentalAggregations = []Candidate{
	{Value: "limitk", Description: "sample k elements", Kind: KindAggregation},
	{Value: "limit_ratio", Description: "sample a ratio of elements", Kind: KindAggregation},
}

var keywords = []Candidate{
	{Value: "and", Description: "intersection", Kind: KindKeyword},
	{Value: "or", Description: "union", Kind: KindKeyword},
	{Value: "unless", Description: "complement", Kind: KindKeyword},
	{Value: "by", Description: "group by labels", Kind: KindKeyword},
	{Value: "without", Description: "group without labels", Kind: KindKeyword},
	{Value: "on", Description: "match on labels", Kind: KindKeyword},
	{Value: "ignoring", Description: "match ignoring labels", Kind: KindKeyword},
	{Value: "group_left", Description: "many-to-one matching", Kind: KindKeyword},
	{Value: "group_right", Description: "one-to-many matching", Kind: KindKeyword},
	{Value: "bool", Description: "comparison returns 0 or 1", Kind: KindKeyword},
	{Value: "offset", Description: "shift evaluation time", Kind: KindKeyword},
}

var durations = []Candidate{
	{Value: "1m", Description: "1 minute", Kind: KindDuration},
	{Value: "5m", Description: "5 minutes", Kind: KindDuration},
	{Value: "10m", Description: "10 minutes", Kind: KindDuration},
	{Value: "15m", Description: "15 minutes", Kind: KindDuration},
	{Value: "30m", Description: "30 minutes", Kind: KindDuration},
	{Value: "1h", Description: "1 hour", Kind: KindDuration},
	{Value: "6h", Description: "6 hours", Kind: KindDuration},
	{Value: "12h", Description: "12 hours", Kind: KindDuration},
	{Value: "1d", Description: "1 day", Kind: KindDuration},
	{Value: "7d", Description: "1 week", Kind: KindDuration},
}

// Functions returns the PromQL function catalogue known to the parser,
// sorted by name. Experimental functions are included only when
// ParserOptions enables them.
func Functions() []Candidate {
	var out []Candidate
	for name, fn := range promparser.Functions {
		if fn.Experimental && !ParserOptions.EnableExperimentalFunctions {
			continue
		}
		out = append(out, Candidate{
			Value:       name + "(",
			Description: signature(fn),
			Kind:        KindFunction,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// Aggregations returns the aggregation operators.
func Aggregations() []Candidate {
	if ParserOptions.EnableExperimentalFunctions {
		return append(append([]Candidate{}, aggregations...), experimentalAggregations...)
	}
	return aggregations
}

func signature(fn *promparser.Function) string {
	args := lo.Map(fn.ArgTypes, func(vt promparser.ValueType, _ int) string {
		return argPlaceholder(vt)
	})
	if fn.Variadic != 0 {
		args = append(args, "...")
	}
	return fmt.Sprintf("(%s) → %s", strings.Join(args, ", "), fn.ReturnType)
}

func argPlaceholder(vt promparser.ValueType) string {
	switch vt {
	case promparser.ValueTypeVector:
		return "instant-vector"
	case promparser.ValueTypeMatrix:
		return "range-vector"
	case promparser.ValueTypeScalar:
		return "scalar"
	case promparser.ValueTypeString:
		return "string"
	default:
		return "arg"
	}
}
