package ingest

import (
	"os"
	"path/filepath"

	"github.com/akolanti/rulebook-rag/internal/domain/ragErrors"
	"gopkg.in/yaml.v3"
)

// ManifestEntry is one book to ingest. A nil CampaignID inherits the
// manifest-level value.
type ManifestEntry struct {
	Path       string `yaml:"path"`
	CampaignID *int64 `yaml:"campaign_id,omitempty"`
}

// Manifest lists the books of one ingestion run.
//
//	collection: rule_books
//	campaign_id: 0
//	books:
//	  - path: vampire_core.json
//	  - path: chronicle_notes.txt
//	    campaign_id: 7
type Manifest struct {
	Collection string          `yaml:"collection"`
	CampaignID int64           `yaml:"campaign_id"`
	Books      []ManifestEntry `yaml:"books"`
}

// Job is a resolved manifest entry. Filename, when known, is the book's
// metadata.filename and identifies the record ids the job will write.
type Job struct {
	Path       string
	CampaignID int64
	Filename   string
}

// LoadManifest reads a YAML manifest. Relative book paths are resolved
// against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ragErrors.New(ragErrors.InputShape, "ingest.LoadManifest", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, ragErrors.New(ragErrors.InputShape, "ingest.LoadManifest", err)
	}
	dir := filepath.Dir(path)
	for i, b := range m.Books {
		if b.Path == "" {
			return nil, ragErrors.Newf(ragErrors.InputShape, "ingest.LoadManifest", "book %d has no path", i)
		}
		if !filepath.IsAbs(b.Path) {
			m.Books[i].Path = filepath.Join(dir, b.Path)
		}
	}
	return &m, nil
}

func (m *Manifest) Jobs() []Job {
	jobs := make([]Job, 0, len(m.Books))
	for _, b := range m.Books {
		campaign := m.CampaignID
		if b.CampaignID != nil {
			campaign = *b.CampaignID
		}
		jobs = append(jobs, Job{Path: b.Path, CampaignID: campaign})
	}
	return jobs
}
