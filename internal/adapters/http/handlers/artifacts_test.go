package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korhaliv/promptforge/internal/adapters/http/dto"
	"github.com/korhaliv/promptforge/internal/adapters/id"
	"github.com/korhaliv/promptforge/internal/adapters/memory"
	"github.com/korhaliv/promptforge/internal/application/services"
)

func newArtifactsRouter() *chi.Mux {
	registry := services.NewRegistryService(memory.NewArtifactRepository(), nil, id.New())
	handler := NewArtifactsHandler(registry)

	r := chi.NewRouter()
	r.Post("/artifacts/{name}/versions", handler.Register)
	r.Get("/artifacts/{name}/versions", handler.List)
	r.Get("/artifacts/{name}/versions/{selector}", handler.Get)
	r.Put("/artifacts/{name}/aliases/{alias}", handler.SetAlias)
	r.Delete("/artifacts/{name}/aliases/{alias}", handler.DeleteAlias)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestArtifactsHandler_RegisterAndGet(t *testing.T) {
	router := newArtifactsRouter()

	rec := doJSON(t, router, http.MethodPost, "/artifacts/qa.classifier/versions",
		dto.RegisterVersionRequest{Content: "You are a classifier."})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created dto.VersionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, "qa.classifier", created.Artifact)

	rec = doJSON(t, router, http.MethodGet, "/artifacts/qa.classifier/versions/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched dto.VersionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, "You are a classifier.", fetched.Content)
}

func TestArtifactsHandler_RegisterValidation(t *testing.T) {
	router := newArtifactsRouter()

	rec := doJSON(t, router, http.MethodPost, "/artifacts/qa.classifier/versions",
		dto.RegisterVersionRequest{Content: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/artifacts/a.b.c.d/versions",
		dto.RegisterVersionRequest{Content: "content"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArtifactsHandler_GetUnknown(t *testing.T) {
	router := newArtifactsRouter()

	rec := doJSON(t, router, http.MethodGet, "/artifacts/ghost/versions/latest", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	doJSON(t, router, http.MethodPost, "/artifacts/qa.classifier/versions",
		dto.RegisterVersionRequest{Content: "content"})

	rec = doJSON(t, router, http.MethodGet, "/artifacts/qa.classifier/versions/7", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArtifactsHandler_AliasLifecycle(t *testing.T) {
	router := newArtifactsRouter()

	for i := 1; i <= 2; i++ {
		rec := doJSON(t, router, http.MethodPost, "/artifacts/qa.classifier/versions",
			dto.RegisterVersionRequest{Content: fmt.Sprintf("prompt v%d", i)})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodPut, "/artifacts/qa.classifier/aliases/prod",
		dto.SetAliasRequest{Version: 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/artifacts/qa.classifier/versions/prod", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var v dto.VersionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, 2, v.Version)

	// Numeric aliases would shadow version selectors.
	rec = doJSON(t, router, http.MethodPut, "/artifacts/qa.classifier/aliases/42",
		dto.SetAliasRequest{Version: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Binding to a missing version is a 404.
	rec = doJSON(t, router, http.MethodPut, "/artifacts/qa.classifier/aliases/staging",
		dto.SetAliasRequest{Version: 9})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/artifacts/qa.classifier/aliases/prod", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted dto.DeleteAliasResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.True(t, deleted.Deleted)

	// Deleting again succeeds, but reports nothing was removed.
	rec = doJSON(t, router, http.MethodDelete, "/artifacts/qa.classifier/aliases/prod", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.False(t, deleted.Deleted)
}

func TestArtifactsHandler_List(t *testing.T) {
	router := newArtifactsRouter()

	rec := doJSON(t, router, http.MethodGet, "/artifacts/ghost/versions", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for i := 1; i <= 3; i++ {
		doJSON(t, router, http.MethodPost, "/artifacts/qa.classifier/versions",
			dto.RegisterVersionRequest{Content: fmt.Sprintf("v%d", i)})
	}

	rec = doJSON(t, router, http.MethodGet, "/artifacts/qa.classifier/versions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var versions []dto.VersionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &versions))
	require.Len(t, versions, 3)
	for i, v := range versions {
		assert.Equal(t, i+1, v.Version)
	}
}

func TestArtifactsHandler_InvalidBody(t *testing.T) {
	router := newArtifactsRouter()

	req := httptest.NewRequest(http.MethodPost, "/artifacts/qa.classifier/versions",
		bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
