package artifact

import (
	"time"

	json "github.com/goccy/go-json"
)

// ManifestName is the file listing the artifacts of a run.
const ManifestName = "manifest.json"

type Manifest struct {
	RunID     string          `json:"run_id"`
	CreatedAt time.Time       `json:"created_at"`
	Inputs    []InputEntry    `json:"inputs"`
	Artifacts []ArtifactEntry `json:"artifacts"`
}

type InputEntry struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Size int    `json:"size"`
}

type ArtifactEntry struct {
	Filename    string   `json:"filename"`
	Technique   string   `json:"technique"`
	Size        int      `json:"size"`
	Ledger      []int    `json:"ledger"`
	Overlap     string   `json:"overlap,omitempty"`
	ID          string   `json:"id"`
	Fingerprint string   `json:"xxh3"`
	Split       []string `json:"split,omitempty"`
}

func (m *Manifest) Encode() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// DecodeManifest parses a manifest produced by Encode.
func DecodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
