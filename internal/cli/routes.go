package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aretw0/passage/internal/compiler"
	"github.com/aretw0/passage/internal/config"
	"github.com/aretw0/passage/internal/validator"
	"github.com/aretw0/passage/pkg/adapters/file"
	"github.com/aretw0/passage/pkg/adapters/loam"
)

// ListRoutes prints the route IDs of the catalog.
func ListRoutes(ctx context.Context, rt *Runtime, w io.Writer) error {
	ids, err := rt.Engine.Routes(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No routes found.")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}

// ValidateRoutes checks the configured catalog and prints the report.
// It does not need a Runtime, so broken catalogs can be diagnosed.
// Warnings are printed but do not fail validation.
func ValidateRoutes(ctx context.Context, cfg config.Config, w io.Writer) error {
	report, err := validate(ctx, cfg)
	if err != nil {
		return err
	}
	for _, warning := range report.Warnings {
		printSystemMessage(w, "warning: %s", warning)
	}
	if err := report.Err(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Catalog is valid! %d routes ✅\n", report.Routes)
	return nil
}

func validate(ctx context.Context, cfg config.Config) (validator.Report, error) {
	executor, err := newExecutor(cfg)
	if err != nil {
		return validator.Report{}, err
	}

	info, err := os.Stat(cfg.Catalog)
	if err != nil {
		return validator.Report{}, fmt.Errorf("failed to open catalog: %w", err)
	}
	if info.IsDir() {
		var opts []loam.Option
		if executor != nil {
			opts = append(opts, loam.WithExecutor(executor))
		}
		loader, err := loam.Open(cfg.Catalog, opts...)
		if err != nil {
			return validator.Report{}, err
		}
		return validator.ValidateLoader(ctx, loader), nil
	}

	data, err := os.ReadFile(cfg.Catalog)
	if err != nil {
		return validator.Report{}, fmt.Errorf("failed to read catalog: %w", err)
	}
	raw, err := file.Unmarshal(filepath.Ext(cfg.Catalog), data)
	if err != nil {
		return validator.Report{}, err
	}
	catalog, err := compiler.DecodeCatalog(raw)
	if err != nil {
		return validator.Report{}, err
	}
	var opts []compiler.Option
	if executor != nil {
		opts = append(opts, compiler.WithExecutor(executor))
	}
	return validator.ValidateCatalog(catalog, opts...), nil
}
