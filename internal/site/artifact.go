package site

// Artifact is one output file, held in memory until the write stage so the
// link verifier and tests can inspect rendered bytes without touching disk.
type Artifact struct {
	// Path is slash-separated and relative to the output directory.
	Path   string
	Format string // HTML, RSS, JSON, Markdown or Asset
	Bytes  []byte
}

const FormatAsset = "Asset"
