package gepa

import (
	"github.com/XiaoConstantine/dspy-go/pkg/core"

	"github.com/korhaliv/promptforge/internal/domain/models"
)

// recordDataset exposes dataset records through dspy-go's Dataset
// interface. Each record becomes a (query in, expected response out)
// example; expected facts travel in the outputs for the metric.
type recordDataset struct {
	records []models.Record
	index   int
}

func newRecordDataset(records []models.Record) *recordDataset {
	return &recordDataset{records: records}
}

func (d *recordDataset) Next() (core.Example, bool) {
	if d.index >= len(d.records) {
		return core.Example{}, false
	}
	rec := d.records[d.index]
	d.index++

	outputs := map[string]interface{}{
		"response": rec.Expectations.ExpectedResponse,
	}
	if len(rec.Expectations.ExpectedFacts) > 0 {
		facts := make([]interface{}, len(rec.Expectations.ExpectedFacts))
		for i, f := range rec.Expectations.ExpectedFacts {
			facts[i] = f
		}
		outputs["expected_facts"] = facts
	}

	return core.Example{
		Inputs:  map[string]interface{}{"query": rec.Query()},
		Outputs: outputs,
	}, true
}

func (d *recordDataset) Reset() {
	d.index = 0
}
