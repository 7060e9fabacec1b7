package dataset

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korhaliv/promptforge/internal/domain"
)

func TestParse_JSONArray(t *testing.T) {
	input := `[
		{"inputs": {"id": "q1", "query": "capital of France"}, "expectations": {"expected_response": "doc-paris"}},
		{"inputs": {"query": "largest ocean"}, "outputs": {"answer": "Pacific"}, "expectations": {"expected_facts": ["pacific", "ocean"]}}
	]`

	records, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "q1", records[0].QueryID())
	assert.Equal(t, "capital of France", records[0].Query())
	assert.Equal(t, "doc-paris", records[0].Expectations.ExpectedResponse)

	// No explicit id falls back to the query text.
	assert.Equal(t, "largest ocean", records[1].QueryID())
	assert.Equal(t, []string{"pacific", "ocean"}, records[1].Expectations.ExpectedFacts)
	assert.Equal(t, "Pacific", records[1].Outputs["answer"])
}

func TestParse_JSONL(t *testing.T) {
	input := `{"inputs": {"query": "a"}, "expectations": {"expected_response": "doc-a"}}

{"inputs": {"query": "b"}, "expectations": {"expected_response": "doc-b"}}
`

	records, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "doc-b", records[1].Expectations.ExpectedResponse)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(strings.NewReader("   \n"))
	assert.True(t, errors.Is(err, domain.ErrEmptyDataset))

	_, err = Parse(strings.NewReader("[]"))
	assert.True(t, errors.Is(err, domain.ErrEmptyDataset))
}

func TestParse_MissingQuery(t *testing.T) {
	input := `[{"inputs": {}, "expectations": {"expected_response": "doc-a"}}]`
	_, err := Parse(strings.NewReader(input))
	assert.True(t, errors.Is(err, domain.ErrInvalidRecord))
}

func TestParse_MissingExpectations(t *testing.T) {
	input := `{"inputs": {"query": "orphan"}}`
	_, err := Parse(strings.NewReader(input))
	assert.True(t, errors.Is(err, domain.ErrInvalidRecord))
}

func TestParse_MalformedLine(t *testing.T) {
	input := `{"inputs": {"query": "a"}, "expectations": {"expected_response": "doc-a"}}
{not json}`
	_, err := Parse(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
