package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPipeline() *Pipeline {
	return &Pipeline{
		ID:   "p1",
		Name: "Sales",
		Stages: []Stage{
			{ID: "s3", PipelineID: "p1", Title: "Negotiation", Position: 2},
			{ID: "s1", PipelineID: "p1", Title: "Lead", Position: 0},
			{ID: "s2", PipelineID: "p1", Title: "Proposal", Position: 1},
		},
	}
}

func TestPipeline_SortedStages(t *testing.T) {
	p := testPipeline()
	stages := p.SortedStages()

	require.Len(t, stages, 3)
	assert.Equal(t, []string{"s1", "s2", "s3"}, []string{stages[0].ID, stages[1].ID, stages[2].ID})
	assert.Equal(t, "s3", p.Stages[0].ID, "sorting must not reorder the pipeline")
}

func TestPipeline_ResolveStage(t *testing.T) {
	p := testPipeline()

	s, err := p.ResolveStage("s2")
	require.NoError(t, err)
	assert.Equal(t, "Proposal", s.Title)

	s, err = p.ResolveStage("negotiation")
	require.NoError(t, err)
	assert.Equal(t, "s3", s.ID)

	_, err = p.ResolveStage("won")
	assert.Error(t, err)
}

func TestPipeline_FirstStage(t *testing.T) {
	s, ok := testPipeline().FirstStage()
	require.True(t, ok)
	assert.Equal(t, "s1", s.ID)

	_, ok = (&Pipeline{}).FirstStage()
	assert.False(t, ok)
}

func TestPipeline_Validate(t *testing.T) {
	assert.NoError(t, testPipeline().Validate())

	tests := []struct {
		name string
		p    Pipeline
	}{
		{"no name", Pipeline{Stages: []Stage{{Title: "Lead"}}}},
		{"no stages", Pipeline{Name: "Sales"}},
		{"duplicate", Pipeline{Name: "Sales", Stages: []Stage{{Title: "Lead"}, {Title: "lead"}}}},
		{"reserved", Pipeline{Name: "Sales", Stages: []Stage{{Title: "Won"}}}},
		{"blank stage", Pipeline{Name: "Sales", Stages: []Stage{{Title: " "}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.p.Validate())
		})
	}
}
