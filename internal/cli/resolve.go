package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/dealboard/internal/domain"
)

// resolvePipeline finds a pipeline by exact id, case-insensitive name or
// unique id prefix.
func resolvePipeline(ctx context.Context, app *App, input string) (*domain.Pipeline, error) {
	if input == "" {
		return nil, fmt.Errorf("pipeline is required")
	}

	p, err := app.Stages.GetByID(ctx, input)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	pipelines, err := app.Stages.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range pipelines {
		if strings.EqualFold(p.Name, input) {
			return p, nil
		}
	}

	var matches []*domain.Pipeline
	for _, p := range pipelines {
		if strings.HasPrefix(p.ID, input) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("pipeline %q: %w", input, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("pipeline ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

// resolveDeal finds a deal by exact id or unique id prefix.
func resolveDeal(ctx context.Context, app *App, input string) (*domain.Deal, error) {
	if input == "" {
		return nil, fmt.Errorf("deal ID is required")
	}

	d, err := app.Store.GetByID(ctx, input)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	deals, err := app.Store.List(ctx, domain.DealFilter{IncludeArchived: true})
	if err != nil {
		return nil, err
	}
	var matches []*domain.Deal
	for _, d := range deals {
		if strings.HasPrefix(d.ID, input) {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("deal %q: %w", input, domain.ErrNotFound)
	case 1:
		return app.Store.GetByID(ctx, matches[0].ID)
	default:
		return nil, fmt.Errorf("deal ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

// stageTitles maps every known stage id to its title.
func stageTitles(ctx context.Context, app *App) (map[string]string, error) {
	pipelines, err := app.Stages.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, p := range pipelines {
		for _, s := range p.Stages {
			out[s.ID] = s.Title
		}
	}
	return out, nil
}
