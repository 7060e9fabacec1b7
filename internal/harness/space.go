package harness

import (
	"sort"
	"strings"
)

// Axis is one independent dimension of the search space: a name and the
// finite list of values it can take.
type Axis struct {
	Name   string
	Values []string
}

// AxisValue is one chosen (axis, value) pair.
type AxisValue struct {
	Axis  string
	Value string
}

// Configuration is one point in the search space: a value for every axis,
// in axis declaration order. Position is the configuration's index in the
// enumeration and breaks ranking ties.
type Configuration struct {
	Position int
	Values   []AxisValue
}

// Key renders the configuration as "axis=value,axis=value" in declaration
// order. Keys are stable across runs of the same space.
func (c Configuration) Key() string {
	parts := make([]string, len(c.Values))
	for i, av := range c.Values {
		parts[i] = av.Axis + "=" + av.Value
	}
	return strings.Join(parts, ",")
}

// Map returns the configuration's values as a lookup map.
func (c Configuration) Map() map[string]string {
	m := make(map[string]string, len(c.Values))
	for _, av := range c.Values {
		m[av.Axis] = av.Value
	}
	return m
}

// Enumerate expands axes into their full Cartesian product. The first
// declared axis varies slowest, so [{a,b},{x,y}] yields (a,x), (a,y),
// (b,x), (b,y). Zero axes yield a single empty configuration.
func Enumerate(axes []Axis) []Configuration {
	total := 1
	for _, axis := range axes {
		total *= len(axis.Values)
	}
	if total == 0 {
		return nil
	}

	configs := make([]Configuration, 0, total)
	indices := make([]int, len(axes))

	for pos := 0; pos < total; pos++ {
		values := make([]AxisValue, len(axes))
		for i, axis := range axes {
			values[i] = AxisValue{Axis: axis.Name, Value: axis.Values[indices[i]]}
		}
		configs = append(configs, Configuration{Position: pos, Values: values})

		// Advance like an odometer, last axis fastest.
		for i := len(axes) - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(axes[i].Values) {
				break
			}
			indices[i] = 0
		}
	}

	return configs
}

// NormalizeCutoffs sorts cutoffs ascending, removes duplicates and
// non-positive values, and falls back to a default when nothing is left.
func NormalizeCutoffs(cutoffs []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, k := range cutoffs {
		if k > 0 && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		return []int{1, 5, 10}
	}
	sort.Ints(out)
	return out
}
