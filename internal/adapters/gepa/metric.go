package gepa

import (
	"strings"
)

// ScoreExample grades a predicted response against the expected one.
// The score averages two parts, each in [0, 1]:
//   - token F1 between the expected and actual response text
//   - the fraction of expected facts present in the actual response
//
// A part contributes only when the example defines it.
func ScoreExample(expected, actual map[string]interface{}) float64 {
	actualResponse, _ := actual["response"].(string)

	var parts []float64

	if expectedResponse, _ := expected["response"].(string); expectedResponse != "" {
		parts = append(parts, tokenF1(expectedResponse, actualResponse))
	}

	if facts := toStrings(expected["expected_facts"]); len(facts) > 0 {
		parts = append(parts, factCoverage(facts, actualResponse))
	}

	if len(parts) == 0 {
		return 0
	}

	var sum float64
	for _, p := range parts {
		sum += p
	}
	return sum / float64(len(parts))
}

func tokenF1(expected, actual string) float64 {
	expectedTokens := tokenize(expected)
	actualTokens := tokenize(actual)
	if len(expectedTokens) == 0 || len(actualTokens) == 0 {
		return 0
	}

	counts := make(map[string]int, len(expectedTokens))
	for _, t := range expectedTokens {
		counts[t]++
	}

	overlap := 0
	for _, t := range actualTokens {
		if counts[t] > 0 {
			counts[t]--
			overlap++
		}
	}
	if overlap == 0 {
		return 0
	}

	precision := float64(overlap) / float64(len(actualTokens))
	recall := float64(overlap) / float64(len(expectedTokens))
	return 2 * precision * recall / (precision + recall)
}

func factCoverage(facts []string, response string) float64 {
	if response == "" {
		return 0
	}
	lower := strings.ToLower(response)
	found := 0
	for _, fact := range facts {
		if strings.Contains(lower, strings.ToLower(fact)) {
			found++
		}
	}
	return float64(found) / float64(len(facts))
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

func toStrings(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
