/*
Package passage is a sequential lifecycle-hook orchestrator for navigations.

Given the routes being left and the routes being entered, it runs every
route's leave hook in declared order, then every enter hook in reverse
declared order, strictly one after another. Hooks receive the in-flight
Transition and may record an abort on it: a redirect, a cancellation or any
other reason. The first reason wins and the caller inspects it once a phase
has settled.

# Hooks

A hook is one of four tagged variants from pkg/domain:

  - LeaveFunc / EnterFunc return their result. Returning a domain.Awaitable
    (for example domain.Async) suspends the step until it resolves.
  - LeaveCallback / EnterCallback settle their step by calling done(err, result).

A failing hook short-circuits the rest of its phase and surfaces as a
*domain.HookError.

# Usage

	loader := memory.MustLoader(
		domain.Route{ID: "editor", OnLeave: domain.LeaveFunc(confirmUnsaved)},
		domain.Route{ID: "settings", OnEnter: domain.EnterFunc(loadSettings)},
	)
	eng := passage.New(passage.WithLoader(loader), passage.WithStore(memory.NewStore()))

	outcome, err := eng.Navigate(ctx, domain.NavigationRequest{
		Path: "/settings",
		From: []string{"editor"},
		To:   []string{"settings"},
	})
	if err != nil {
		log.Fatal(err) // unknown route, lock or store failure
	}
	switch outcome.Status {
	case domain.StatusRedirected:
		// follow outcome.Redirect
	case domain.StatusFailed:
		// inspect outcome.Err
	}

Route catalogs can also be declared in YAML, JSON or TOML files
(pkg/adapters/file) or in a directory of Markdown documents with frontmatter
(pkg/adapters/loam).
*/
package passage
