// Package validator checks route catalogs before they are served.
package validator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/passage/internal/compiler"
	"github.com/aretw0/passage/internal/dto"
	"github.com/aretw0/passage/pkg/ports"
)

// Report lists the problems found in a catalog.
// Errors make a catalog unusable; warnings are suspicious but compile.
type Report struct {
	Routes   int
	Errors   []string
	Warnings []string
}

// Err summarises the errors of the report, or returns nil.
func (r Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(r.Errors), strings.Join(r.Errors, "\n- "))
}

// ValidateCatalog compiles every route of c and looks for duplicate IDs and
// redirects towards targets that are not routes of the catalog.
// Unlike CompileCatalog it reports every problem instead of the first.
func ValidateCatalog(c dto.Catalog, opts ...compiler.Option) Report {
	comp := compiler.New(opts...)
	report := Report{}

	known := make(map[string]bool, len(c.Routes))
	for i, spec := range c.Routes {
		switch {
		case spec.ID == "":
			report.Errors = append(report.Errors, fmt.Sprintf("route #%d: missing id", i))
		case known[spec.ID]:
			report.Errors = append(report.Errors, fmt.Sprintf("route '%s': duplicate id", spec.ID))
		default:
			known[spec.ID] = true
		}
	}
	report.Routes = len(known)

	for _, spec := range c.Routes {
		if spec.ID == "" {
			continue
		}
		if _, err := comp.Compile(spec); err != nil {
			report.Errors = append(report.Errors, err.Error())
			continue
		}
		for _, hook := range []struct {
			name string
			spec *dto.HookSpec
		}{{"on_leave", spec.OnLeave}, {"on_enter", spec.OnEnter}} {
			if hook.spec == nil || hook.spec.Effect != dto.EffectRedirect {
				continue
			}
			if !known[hook.spec.To] {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("route '%s' %s: redirect target '%s' is not a route", spec.ID, hook.name, hook.spec.To))
			}
		}
	}
	return report
}

// ValidateLoader resolves every route the loader lists.
func ValidateLoader(ctx context.Context, loader ports.RouteLoader) Report {
	report := Report{}
	ids, err := loader.ListRoutes(ctx)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("list routes: %v", err))
		return report
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, err := loader.GetRoute(ctx, id); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("route '%s': %v", id, err))
			continue
		}
		report.Routes++
	}
	return report
}
