package models

import "time"

// SelectorLatest resolves to the highest existing version number of an artifact.
const SelectorLatest = "latest"

// Version is one immutable revision of a named artifact. Version numbers
// start at 1 and are strictly increasing per artifact; numbers are never
// reused, even conceptually after deletions.
type Version struct {
	ID        string            `json:"id"`
	Artifact  string            `json:"artifact"`
	Number    int               `json:"number"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewVersion creates a version with the number left unassigned; the
// repository assigns it at insert time.
func NewVersion(id, artifact, content string, metadata map[string]string) *Version {
	return &Version{
		ID:        id,
		Artifact:  artifact,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}

// Alias is a mutable named pointer to one version of an artifact.
// Reassigning an alias overwrites the previous binding.
type Alias struct {
	Artifact  string    `json:"artifact"`
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}
