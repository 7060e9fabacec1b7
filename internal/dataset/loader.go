// Package dataset loads evaluation records in the three-key exchange
// format: inputs, optional outputs, expectations.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/korhaliv/promptforge/internal/domain"
	"github.com/korhaliv/promptforge/internal/domain/models"
)

// Load reads records from a file holding either a JSON array or JSONL.
func Load(path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	records, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}
	return records, nil
}

// Parse reads records from a JSON array or JSONL stream; the format is
// sniffed from the first non-whitespace byte.
func Parse(r io.Reader) ([]models.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, domain.ErrEmptyDataset
	}

	var records []models.Record
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("invalid JSON array: %w", err)
		}
	} else {
		records, err = parseLines(trimmed)
		if err != nil {
			return nil, err
		}
	}

	if len(records) == 0 {
		return nil, domain.ErrEmptyDataset
	}

	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}

	return records, nil
}

func parseLines(data []byte) ([]models.Record, error) {
	var records []models.Record

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var rec models.Record
		if err := json.Unmarshal(text, &rec); err != nil {
			return nil, fmt.Errorf("invalid JSONL at line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
