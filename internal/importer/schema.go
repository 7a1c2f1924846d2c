package importer

import (
	"encoding/json"
	"fmt"
	"os"
)

// ImportSchema is the top-level JSON structure for a board import.
type ImportSchema struct {
	Pipeline PipelineImport  `json:"pipeline"`
	Contacts []ContactImport `json:"contacts,omitempty"`
	Deals    []DealImport    `json:"deals"`
}

// PipelineImport names the pipeline and its stages, in board order.
type PipelineImport struct {
	Name   string   `json:"name"`
	Stages []string `json:"stages"`
}

// ContactImport defines a contact that deals can reference by Ref.
type ContactImport struct {
	Ref     string `json:"ref"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Company string `json:"company,omitempty"`
}

// DealImport defines a deal placed on one of the pipeline's stages.
type DealImport struct {
	Title      string `json:"title"`
	Stage      string `json:"stage,omitempty"`
	Client     string `json:"client,omitempty"`
	Value      int64  `json:"value,omitempty"`
	Currency   string `json:"currency,omitempty"`
	Status     string `json:"status,omitempty"`
	ContactRef string `json:"contact_ref,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// LoadImportSchema reads and parses a board import JSON file.
func LoadImportSchema(path string) (*ImportSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseImportSchema(data)
}

// ParseImportSchema parses raw import JSON.
func ParseImportSchema(data []byte) (*ImportSchema, error) {
	var schema ImportSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}
