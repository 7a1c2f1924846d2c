package importer

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dealboard/internal/domain"
)

var validCurrencies = map[string]bool{"USD": true, "EUR": true, "GBP": true}

// ValidateImportSchema checks the import schema for errors before conversion.
// Returns a slice of all validation errors found.
func ValidateImportSchema(schema *ImportSchema) []error {
	var errs []error

	stageTitles := make(map[string]bool)
	errs = append(errs, validatePipeline(&schema.Pipeline, stageTitles)...)

	contactRefs := make(map[string]bool)
	errs = append(errs, validateContacts(schema.Contacts, contactRefs)...)

	errs = append(errs, validateDeals(schema.Deals, stageTitles, contactRefs)...)

	return errs
}

func validatePipeline(p *PipelineImport, titles map[string]bool) []error {
	var errs []error

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, fmt.Errorf("pipeline.name is required"))
	}
	if len(p.Stages) == 0 {
		errs = append(errs, fmt.Errorf("pipeline.stages must not be empty"))
	}
	for i, title := range p.Stages {
		key := strings.ToLower(strings.TrimSpace(title))
		if key == "" {
			errs = append(errs, fmt.Errorf("pipeline.stages[%d]: title is required", i))
			continue
		}
		if domain.IsRestTarget(key) {
			errs = append(errs, fmt.Errorf("pipeline.stages[%d]: title %q is reserved", i, title))
			continue
		}
		if titles[key] {
			errs = append(errs, fmt.Errorf("pipeline.stages[%d]: duplicate title %q", i, title))
		}
		titles[key] = true
	}

	return errs
}

func validateContacts(contacts []ContactImport, refs map[string]bool) []error {
	var errs []error
	for i, c := range contacts {
		prefix := fmt.Sprintf("contacts[%d]", i)
		if c.Ref == "" {
			errs = append(errs, fmt.Errorf("%s.ref is required", prefix))
		} else if refs[c.Ref] {
			errs = append(errs, fmt.Errorf("%s.ref: duplicate ref %q", prefix, c.Ref))
		}
		refs[c.Ref] = true
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if c.Email != "" && !strings.Contains(c.Email, "@") {
			errs = append(errs, fmt.Errorf("%s.email: %q is not an address", prefix, c.Email))
		}
	}
	return errs
}

func validateDeals(deals []DealImport, stageTitles, contactRefs map[string]bool) []error {
	var errs []error
	for i, d := range deals {
		prefix := fmt.Sprintf("deals[%d]", i)
		if strings.TrimSpace(d.Title) == "" {
			errs = append(errs, fmt.Errorf("%s.title is required", prefix))
		}
		if d.Stage != "" && !stageTitles[strings.ToLower(strings.TrimSpace(d.Stage))] {
			errs = append(errs, fmt.Errorf("%s.stage: unknown stage %q", prefix, d.Stage))
		}
		if d.Value < 0 {
			errs = append(errs, fmt.Errorf("%s.value must not be negative", prefix))
		}
		if d.Currency != "" && !validCurrencies[strings.ToUpper(d.Currency)] {
			errs = append(errs, fmt.Errorf("%s.currency: invalid value %q", prefix, d.Currency))
		}
		if d.Status != "" && !domain.ValidDealStatuses[domain.DealStatus(d.Status)] {
			errs = append(errs, fmt.Errorf("%s.status: invalid value %q", prefix, d.Status))
		}
		if d.ContactRef != "" && !contactRefs[d.ContactRef] {
			errs = append(errs, fmt.Errorf("%s.contact_ref: unknown ref %q", prefix, d.ContactRef))
		}
	}
	return errs
}
