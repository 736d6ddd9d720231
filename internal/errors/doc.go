// Package errors provides classified errors for growl.
//
// Every error that reaches the CLI carries a category (config, header,
// post_naming, layout_cycle, ...) and a severity. The CLI adapter maps
// categories to process exit codes.
//
//	err := errors.LayoutCycleError("layout chain loops").
//		WithContext("chain", []string{"a", "b", "a"}).
//		Build()
package errors
