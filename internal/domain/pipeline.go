package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Pipeline is an ordered set of stages that deals move through.
type Pipeline struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Stages    []Stage   `json:"stages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stage is one column of a pipeline.
type Stage struct {
	ID         string `json:"id"`
	PipelineID string `json:"pipelineId"`
	Title      string `json:"title"`
	Position   int    `json:"position"`
}

// SortedStages returns the stages ordered by position, then title.
func (p *Pipeline) SortedStages() []Stage {
	out := make([]Stage, len(p.Stages))
	copy(out, p.Stages)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// StageByID returns the stage with the given id.
func (p *Pipeline) StageByID(id string) (Stage, bool) {
	for _, s := range p.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}

// HasStage reports whether id names one of the pipeline's stages.
func (p *Pipeline) HasStage(id string) bool {
	_, ok := p.StageByID(id)
	return ok
}

// ResolveStage finds a stage by id, then by case-insensitive title.
func (p *Pipeline) ResolveStage(input string) (Stage, error) {
	if s, ok := p.StageByID(input); ok {
		return s, nil
	}
	for _, s := range p.Stages {
		if strings.EqualFold(s.Title, input) {
			return s, nil
		}
	}
	return Stage{}, fmt.Errorf("stage %q in pipeline %q: %w", input, p.Name, ErrNotFound)
}

// FirstStage returns the lowest-positioned stage.
func (p *Pipeline) FirstStage() (Stage, bool) {
	stages := p.SortedStages()
	if len(stages) == 0 {
		return Stage{}, false
	}
	return stages[0], true
}

// Validate checks that the pipeline has a name and uniquely titled stages.
func (p *Pipeline) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return Invalidf("pipeline name is required")
	}
	if len(p.Stages) == 0 {
		return Invalidf("pipeline %q needs at least one stage", p.Name)
	}
	seen := make(map[string]bool, len(p.Stages))
	for _, s := range p.Stages {
		key := strings.ToLower(strings.TrimSpace(s.Title))
		if key == "" {
			return Invalidf("pipeline %q has a stage without a title", p.Name)
		}
		if IsRestTarget(key) {
			return Invalidf("stage title %q is reserved", s.Title)
		}
		if seen[key] {
			return Invalidf("duplicate stage title %q", s.Title)
		}
		seen[key] = true
	}
	return nil
}
