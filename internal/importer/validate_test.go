package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMinimalSchema() *ImportSchema {
	return &ImportSchema{
		Pipeline: PipelineImport{
			Name:   "Sales",
			Stages: []string{"Lead", "Proposal"},
		},
		Deals: []DealImport{
			{Title: "Website redesign"},
		},
	}
}

func TestValidateImportSchema_ValidMinimal(t *testing.T) {
	errs := ValidateImportSchema(validMinimalSchema())
	assert.Empty(t, errs)
}

func TestValidateImportSchema_ValidFull(t *testing.T) {
	schema := &ImportSchema{
		Pipeline: PipelineImport{Name: "Enterprise", Stages: []string{"Lead", "Demo", "Negotiation"}},
		Contacts: []ContactImport{
			{Ref: "c1", Name: "Ada", Email: "ada@example.com", Company: "Analytical Ltd"},
		},
		Deals: []DealImport{
			{Title: "Engine", Stage: "demo", Client: "Analytical Ltd", Value: 50000, Currency: "gbp", ContactRef: "c1"},
			{Title: "Loom", Stage: "Negotiation", Status: "won"},
		},
	}
	assert.Empty(t, ValidateImportSchema(schema))
}

func TestValidateImportSchema_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *ImportSchema)
		want   string
	}{
		{"missing pipeline name", func(s *ImportSchema) { s.Pipeline.Name = " " }, "pipeline.name is required"},
		{"no stages", func(s *ImportSchema) { s.Pipeline.Stages = nil }, "pipeline.stages must not be empty"},
		{"blank stage", func(s *ImportSchema) { s.Pipeline.Stages = []string{"Lead", ""} }, "pipeline.stages[1]: title is required"},
		{"reserved stage", func(s *ImportSchema) { s.Pipeline.Stages = []string{"Won"} }, "reserved"},
		{"duplicate stage", func(s *ImportSchema) { s.Pipeline.Stages = []string{"Lead", "lead"} }, "duplicate title"},
		{"unknown deal stage", func(s *ImportSchema) { s.Deals[0].Stage = "Closing" }, "unknown stage"},
		{"negative value", func(s *ImportSchema) { s.Deals[0].Value = -5 }, "must not be negative"},
		{"bad currency", func(s *ImportSchema) { s.Deals[0].Currency = "JPY" }, "currency"},
		{"bad status", func(s *ImportSchema) { s.Deals[0].Status = "pending" }, "status"},
		{"unknown contact", func(s *ImportSchema) { s.Deals[0].ContactRef = "nobody" }, "unknown ref"},
		{"missing title", func(s *ImportSchema) { s.Deals[0].Title = "" }, "deals[0].title is required"},
		{"contact without ref", func(s *ImportSchema) { s.Contacts = []ContactImport{{Name: "Bo"}} }, "contacts[0].ref is required"},
		{"duplicate contact", func(s *ImportSchema) {
			s.Contacts = []ContactImport{{Ref: "a", Name: "A"}, {Ref: "a", Name: "B"}}
		}, "duplicate ref"},
		{"bad email", func(s *ImportSchema) { s.Contacts = []ContactImport{{Ref: "a", Name: "A", Email: "nope"}} }, "not an address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := validMinimalSchema()
			tt.mutate(schema)
			errs := ValidateImportSchema(schema)
			require.NotEmpty(t, errs)
			var msgs []string
			for _, e := range errs {
				msgs = append(msgs, e.Error())
			}
			assert.Contains(t, joinLines(msgs), tt.want)
		})
	}
}

func TestValidateImportSchema_CollectsAllErrors(t *testing.T) {
	schema := &ImportSchema{
		Deals: []DealImport{{Title: ""}, {Title: "x", Value: -1}},
	}
	errs := ValidateImportSchema(schema)
	assert.Len(t, errs, 4)
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}
