package dto

import (
	"time"

	"github.com/korhaliv/promptforge/internal/domain/models"
)

// RegisterVersionRequest is the body of POST /artifacts/{name}/versions.
type RegisterVersionRequest struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SetAliasRequest is the body of PUT /artifacts/{name}/aliases/{alias}.
type SetAliasRequest struct {
	Version int `json:"version"`
}

type VersionResponse struct {
	ID        string            `json:"id"`
	Artifact  string            `json:"artifact"`
	Version   int               `json:"version"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func VersionFromModel(v *models.Version) *VersionResponse {
	return &VersionResponse{
		ID:        v.ID,
		Artifact:  v.Artifact,
		Version:   v.Number,
		Content:   v.Content,
		Metadata:  v.Metadata,
		CreatedAt: v.CreatedAt,
	}
}

func VersionsFromModels(versions []*models.Version) []*VersionResponse {
	out := make([]*VersionResponse, len(versions))
	for i, v := range versions {
		out[i] = VersionFromModel(v)
	}
	return out
}

type DeleteAliasResponse struct {
	Deleted bool `json:"deleted"`
}
