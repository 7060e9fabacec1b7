package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korhaliv/promptforge/internal/adapters/memory"
	"github.com/korhaliv/promptforge/internal/domain"
)

type stubIDGenerator struct {
	counter atomic.Int64
}

func (g *stubIDGenerator) next(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, g.counter.Add(1))
}

func (g *stubIDGenerator) GenerateVersionID() string         { return g.next("pfv") }
func (g *stubIDGenerator) GenerateEvaluationRunID() string   { return g.next("pfe") }
func (g *stubIDGenerator) GenerateQueryResultID() string     { return g.next("pfq") }
func (g *stubIDGenerator) GenerateReportID() string          { return g.next("pfr") }
func (g *stubIDGenerator) GenerateOptimizationRunID() string { return g.next("pfo") }

func newTestRegistry() *RegistryService {
	return NewRegistryService(memory.NewArtifactRepository(), nil, &stubIDGenerator{})
}

func TestRegistryService_RegisterIncrementsFromOne(t *testing.T) {
	svc := newTestRegistry()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		v, err := svc.Register(ctx, "qa.classifier", fmt.Sprintf("prompt v%d", i), nil)
		require.NoError(t, err)
		assert.Equal(t, i, v.Number)
	}
}

func TestRegistryService_RegisterValidation(t *testing.T) {
	svc := newTestRegistry()
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
	}{
		{"", "content"},
		{"bad name with spaces", "content"},
		{"a.b.c.d", "content"},
		{"trailing.", "content"},
		{"qa.classifier", ""},
		{"qa.classifier", "   "},
	}

	for _, tt := range tests {
		_, err := svc.Register(ctx, tt.name, tt.content, nil)
		assert.True(t, errors.Is(err, domain.ErrInvalidArtifact),
			"Register(%q, %q) should fail with ErrInvalidArtifact, got %v", tt.name, tt.content, err)
	}
}

func TestRegistryService_GetSelectors(t *testing.T) {
	svc := newTestRegistry()
	ctx := context.Background()

	_, err := svc.Register(ctx, "qa.classifier", "first", nil)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "qa.classifier", "second", nil)
	require.NoError(t, err)

	latest, err := svc.Get(ctx, "qa.classifier", "latest")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Number)

	// Empty selector behaves like "latest".
	implicit, err := svc.Get(ctx, "qa.classifier", "")
	require.NoError(t, err)
	assert.Equal(t, latest.Number, implicit.Number)

	explicit, err := svc.Get(ctx, "qa.classifier", "1")
	require.NoError(t, err)
	assert.Equal(t, "first", explicit.Content)

	_, err = svc.Get(ctx, "qa.classifier", "7")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = svc.Get(ctx, "qa.classifier", "0")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = svc.Get(ctx, "unknown.artifact", "latest")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRegistryService_AliasLifecycle(t *testing.T) {
	svc := newTestRegistry()
	ctx := context.Background()

	_, err := svc.Register(ctx, "qa.classifier", "v1 prompt", nil)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "qa.classifier", "v2 prompt", nil)
	require.NoError(t, err)

	require.NoError(t, svc.SetAlias(ctx, "qa.classifier", "prod", 1))
	// Reassignment overwrites, never appends.
	require.NoError(t, svc.SetAlias(ctx, "qa.classifier", "prod", 2))

	v, err := svc.Get(ctx, "qa.classifier", "prod")
	require.NoError(t, err)
	assert.Equal(t, 2, v.Number)
	assert.Equal(t, "v2 prompt", v.Content)

	err = svc.SetAlias(ctx, "qa.classifier", "prod", 9)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	existed, err := svc.DeleteAlias(ctx, "qa.classifier", "prod")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = svc.DeleteAlias(ctx, "qa.classifier", "prod")
	require.NoError(t, err)
	assert.False(t, existed, "deleting an absent alias reports existed=false without error")

	_, err = svc.Get(ctx, "qa.classifier", "prod")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRegistryService_AliasValidation(t *testing.T) {
	svc := newTestRegistry()
	ctx := context.Background()

	_, err := svc.Register(ctx, "qa.classifier", "content", nil)
	require.NoError(t, err)

	for _, alias := range []string{"", "latest", "3", "42"} {
		err := svc.SetAlias(ctx, "qa.classifier", alias, 1)
		assert.True(t, errors.Is(err, domain.ErrInvalidAlias),
			"alias %q should be rejected, got %v", alias, err)
	}
}

func TestRegistryService_ListVersions(t *testing.T) {
	svc := newTestRegistry()
	ctx := context.Background()

	_, err := svc.ListVersions(ctx, "unknown.artifact")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "unknown artifact is an error, not an empty list")

	for i := 1; i <= 3; i++ {
		_, err := svc.Register(ctx, "qa.classifier", fmt.Sprintf("v%d", i), nil)
		require.NoError(t, err)
	}

	versions, err := svc.ListVersions(ctx, "qa.classifier")
	require.NoError(t, err)
	require.Len(t, versions, 3)
	for i, v := range versions {
		assert.Equal(t, i+1, v.Number)
	}
}

// Mirrors the end-to-end registry walkthrough: register twice, alias the
// newer version, resolve through the alias, list in order.
func TestRegistryService_Walkthrough(t *testing.T) {
	svc := newTestRegistry()
	ctx := context.Background()

	v1, err := svc.Register(ctx, "clf", "You are a classifier. Answer YES or NO.", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Number)

	v2, err := svc.Register(ctx, "clf", "You are a strict classifier. Answer YES or NO only.", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Number)

	require.NoError(t, svc.SetAlias(ctx, "clf", "gpt5", 2))

	resolved, err := svc.Get(ctx, "clf", "gpt5")
	require.NoError(t, err)
	assert.Equal(t, v2.Content, resolved.Content)

	versions, err := svc.ListVersions(ctx, "clf")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 1, versions[0].Number)
	assert.Equal(t, 2, versions[1].Number)
}
