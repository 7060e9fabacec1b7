package handlers

import (
	"net/http"

	"github.com/korhaliv/promptforge/internal/adapters/http/dto"
	"github.com/korhaliv/promptforge/internal/application/services"
)

type ArtifactsHandler struct {
	registry *services.RegistryService
}

func NewArtifactsHandler(registry *services.RegistryService) *ArtifactsHandler {
	return &ArtifactsHandler{registry: registry}
}

// Register handles POST /artifacts/{name}/versions
func (h *ArtifactsHandler) Register(w http.ResponseWriter, r *http.Request) {
	name, ok := validateURLParam(r, w, "name", "artifact name")
	if !ok {
		return
	}

	req, ok := decodeJSON[dto.RegisterVersionRequest](r, w)
	if !ok {
		return
	}

	version, err := h.registry.Register(r.Context(), name, req.Content, req.Metadata)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, dto.VersionFromModel(version), http.StatusCreated)
}

// Get handles GET /artifacts/{name}/versions/{selector}. The selector is a
// version number, an alias, or "latest".
func (h *ArtifactsHandler) Get(w http.ResponseWriter, r *http.Request) {
	name, ok := validateURLParam(r, w, "name", "artifact name")
	if !ok {
		return
	}
	selector, ok := validateURLParam(r, w, "selector", "selector")
	if !ok {
		return
	}

	version, err := h.registry.Get(r.Context(), name, selector)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, dto.VersionFromModel(version), http.StatusOK)
}

// List handles GET /artifacts/{name}/versions
func (h *ArtifactsHandler) List(w http.ResponseWriter, r *http.Request) {
	name, ok := validateURLParam(r, w, "name", "artifact name")
	if !ok {
		return
	}

	versions, err := h.registry.ListVersions(r.Context(), name)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, dto.VersionsFromModels(versions), http.StatusOK)
}

// SetAlias handles PUT /artifacts/{name}/aliases/{alias}
func (h *ArtifactsHandler) SetAlias(w http.ResponseWriter, r *http.Request) {
	name, ok := validateURLParam(r, w, "name", "artifact name")
	if !ok {
		return
	}
	alias, ok := validateURLParam(r, w, "alias", "alias")
	if !ok {
		return
	}

	req, ok := decodeJSON[dto.SetAliasRequest](r, w)
	if !ok {
		return
	}

	if err := h.registry.SetAlias(r.Context(), name, alias, req.Version); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, map[string]any{
		"artifact": name,
		"alias":    alias,
		"version":  req.Version,
	}, http.StatusOK)
}

// DeleteAlias handles DELETE /artifacts/{name}/aliases/{alias}. Deleting an
// absent alias succeeds with deleted=false.
func (h *ArtifactsHandler) DeleteAlias(w http.ResponseWriter, r *http.Request) {
	name, ok := validateURLParam(r, w, "name", "artifact name")
	if !ok {
		return
	}
	alias, ok := validateURLParam(r, w, "alias", "alias")
	if !ok {
		return
	}

	existed, err := h.registry.DeleteAlias(r.Context(), name, alias)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, dto.DeleteAliasResponse{Deleted: existed}, http.StatusOK)
}
