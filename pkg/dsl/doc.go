/*
Package dsl provides a Go DSL for programmatically declaring Passage route catalogs.

It builds the same declarative hooks a catalog file describes, using a fluent
builder instead of YAML, JSON or TOML. This is particularly useful for tests,
demos and catalogs generated at runtime.

Example usage:

	package main

	import (
		"github.com/aretw0/passage"
		"github.com/aretw0/passage/pkg/dsl"
	)

	func main() {
		b := dsl.New()

		b.Add("editor").
			Leave(dsl.Redirect("confirm").Query("next", "/home"))

		b.Add("home").
			Enter(dsl.Result("welcome").Deferred())

		// The resulting loader can be used as a ports.RouteLoader
		loader, _ := b.Build()
		engine := passage.New(passage.WithLoader(loader))
		// ... engine.Navigate(...)
	}
*/
package dsl
