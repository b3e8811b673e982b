package artifact

import "time"

// Provenance tags how a generation step produced its output.
type Provenance string

const (
	ProvenanceGenerated Provenance = "generated"
	ProvenanceFallback  Provenance = "fallback"
)

// GenerationManifest is written next to every generated bundle.
type GenerationManifest struct {
	Kind        string     `json:"kind"`
	Provenance  Provenance `json:"provenance"`
	Files       []string   `json:"files"`
	Attempts    int        `json:"attempts"`
	InputDigest string     `json:"input_digest"`
	Generator   string     `json:"generator,omitempty"`
	Failure     string     `json:"failure,omitempty"`
	GeneratedAt time.Time  `json:"generated_at"`
}
