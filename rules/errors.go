//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// PlainErrorsInPipeline flags fmt.Errorf in pipeline packages. Errors
// that cross the orchestrator need a category so the input / processing
// / cleanup classification keeps working; the builder in
// internal/errors attaches one.
//
//	fmt.Errorf("decode failed: %w", err)
//	→ errors.New(err).Category(errors.CategoryImageDecode).Build()
func PlainErrorsInPipeline(m dsl.Matcher) {
	m.Match(
		`fmt.Errorf($msg, $*args)`,
	).
		Where(m.File().PkgPath.Matches(`internal/(inspection|detector|video|artifact|diskmanager)$`)).
		Report("use the errors builder with a category instead of fmt.Errorf in pipeline packages")
}

// ErrorsJoinOverLoop flags hand-rolled error accumulation that
// errors.Join already handles.
func ErrorsJoinOverLoop(m dsl.Matcher) {
	m.Match(
		`$errs = append($errs, $err.Error())`,
	).
		Report("collect errors with errors.Join instead of string slices")
}
