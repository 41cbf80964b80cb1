package engine

import (
	"sort"

	"github.com/hostprint/hostprint/internal/model"
)

// StableRule selects one record field into the stable feature set.
//
// The allow-list of StableRules is static, versioned engine configuration:
// for the same physical device and build, every listed label must serialize
// byte-identically across sessions, reboots, and network conditions.
type StableRule struct {
	// Label is the feature label used in the canonical string.
	Label string

	// Key is the record schema key to extract.
	Key string

	// SortElements sorts list elements by their canonical string before
	// serialization, so the iteration order of the underlying host
	// collection (interface enumeration, directory listing) never affects
	// the result.
	SortElements bool
}

// selectStable applies the allow-list to a record and returns the ordered
// stable feature set. Output ordering is allow-list declaration order,
// never map iteration order, so the downstream join is stable across runs
// and runtimes.
func selectStable(record *model.Record, rules []StableRule) model.FeatureSet {
	features := make(model.FeatureSet, 0, len(rules))

	for _, rule := range rules {
		v := record.Get(rule.Key)

		if rule.SortElements && v.Kind() == model.KindList {
			v = sortListByCanonical(v)
		}

		features = append(features, model.Feature{
			Label: rule.Label,
			Value: serializeFeature(v),
		})
	}

	return features
}

// sortListByCanonical returns a list value with elements reordered by their
// canonical strings.
func sortListByCanonical(v model.Value) model.Value {
	elems := v.Elems()
	sort.Slice(elems, func(i, j int) bool {
		return elems[i].Canonical() < elems[j].Canonical()
	})
	return model.List(elems...)
}

// serializeFeature renders a value for the canonical string. Strings
// serialize raw (no quotes) because the label:value form already delimits
// them; everything else uses the canonical rendering. A null sentinel
// serializes as "null", so a failed probe degrades the feature to a fixed
// token instead of destabilizing the join.
//
// Numeric fields keep their exact serialization. Where a probe rounds to a
// fixed decimal precision to suppress jitter, that rounding happened inside
// the probe; nothing is re-rounded here.
func serializeFeature(v model.Value) string {
	if v.Kind() == model.KindString {
		return v.Str()
	}
	return v.Canonical()
}
