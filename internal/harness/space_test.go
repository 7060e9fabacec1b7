package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnumerate_DeclarationOrder(t *testing.T) {
	axes := []Axis{
		{Name: "model", Values: []string{"a", "b"}},
		{Name: "strategy", Values: []string{"x", "y"}},
	}

	configs := Enumerate(axes)

	keys := make([]string, len(configs))
	for i, c := range configs {
		keys[i] = c.Key()
	}

	assert.Equal(t, []string{
		"model=a,strategy=x",
		"model=a,strategy=y",
		"model=b,strategy=x",
		"model=b,strategy=y",
	}, keys)

	for i, c := range configs {
		assert.Equal(t, i, c.Position)
	}
}

func TestEnumerate_SingleAxis(t *testing.T) {
	configs := Enumerate([]Axis{{Name: "k", Values: []string{"1", "2", "3"}}})
	assert.Len(t, configs, 3)
	assert.Equal(t, "k=2", configs[1].Key())
}

func TestEnumerate_EmptyAxisValues(t *testing.T) {
	configs := Enumerate([]Axis{
		{Name: "model", Values: []string{"a"}},
		{Name: "broken", Values: nil},
	})
	assert.Empty(t, configs)
}

func TestEnumerate_NoAxes(t *testing.T) {
	configs := Enumerate(nil)
	assert.Len(t, configs, 1)
	assert.Equal(t, "", configs[0].Key())
}

func TestConfiguration_Map(t *testing.T) {
	c := Configuration{Values: []AxisValue{{"model", "a"}, {"strategy", "x"}}}
	assert.Equal(t, map[string]string{"model": "a", "strategy": "x"}, c.Map())
}

func TestNormalizeCutoffs(t *testing.T) {
	assert.Equal(t, []int{1, 5, 10}, NormalizeCutoffs(nil))
	assert.Equal(t, []int{1, 5, 10}, NormalizeCutoffs([]int{10, 5, 1, 5, 0, -3}))
	assert.Equal(t, []int{3}, NormalizeCutoffs([]int{3}))
}
