//go:build ruleguard

// Package gorules defines custom linter rules for the aoi-go tree,
// run through golangci-lint's gocritic ruleguard integration.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// MinMaxBuiltin flags manual clamping that the min/max builtins cover.
// The frame geometry code clamps box coordinates constantly, so the
// if-based form creeps back in easily.
//
//	if a < b { result = a } else { result = b }   →  result = min(a, b)
//	int(math.Min(float64(a), float64(b)))         →  min(a, b)
func MinMaxBuiltin(m dsl.Matcher) {
	m.Match(
		`int(math.Min(float64($a), float64($b)))`,
	).
		Report("use min($a, $b) instead of int(math.Min(float64(...)))").
		Suggest("min($a, $b)")

	m.Match(
		`int(math.Max(float64($a), float64($b)))`,
	).
		Report("use max($a, $b) instead of int(math.Max(float64(...)))").
		Suggest("max($a, $b)")

	m.Match(
		`if $a < $b { $result = $a } else { $result = $b }`,
	).
		Report("use $result = min($a, $b)").
		Suggest("$result = min($a, $b)")

	m.Match(
		`if $a > $b { $result = $a } else { $result = $b }`,
	).
		Report("use $result = max($a, $b)").
		Suggest("$result = max($a, $b)")
}
