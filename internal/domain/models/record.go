package models

import (
	"fmt"

	"github.com/korhaliv/promptforge/internal/domain"
)

// Record is one dataset entry in the three-key exchange format:
// inputs the system under evaluation receives, optional reference outputs,
// and expectations used for scoring.
type Record struct {
	Inputs       map[string]any `json:"inputs"`
	Outputs      map[string]any `json:"outputs,omitempty"`
	Expectations Expectations   `json:"expectations"`
}

// Expectations holds the scoring targets for a record. At least one of the
// fields must be present.
type Expectations struct {
	ExpectedResponse string   `json:"expected_response,omitempty"`
	ExpectedFacts    []string `json:"expected_facts,omitempty"`
}

// Query returns the record's query input, or "" when absent.
func (r Record) Query() string {
	q, _ := r.Inputs["query"].(string)
	return q
}

// QueryID returns a stable identifier for the record: the explicit "id"
// input when present, otherwise the query text itself.
func (r Record) QueryID() string {
	if id, ok := r.Inputs["id"].(string); ok && id != "" {
		return id
	}
	return r.Query()
}

// Validate checks the three-key invariants: a non-empty query input and at
// least one expectation.
func (r Record) Validate() error {
	if r.Query() == "" {
		return domain.NewDomainError(domain.ErrInvalidRecord, "inputs.query is required")
	}
	if r.Expectations.ExpectedResponse == "" && len(r.Expectations.ExpectedFacts) == 0 {
		return domain.NewDomainError(domain.ErrInvalidRecord,
			fmt.Sprintf("record %q has no expectations", r.QueryID()))
	}
	return nil
}
