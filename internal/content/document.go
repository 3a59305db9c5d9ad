package content

// Document represents a discovered content file.
type Document struct {
	Path         string // Absolute path to the file
	RelativePath string // Path relative to the content directory, slash separated
	Section      string // First path element ("" for root-level documents)
	Name         string // File name without extension
	Extension    string // File extension including the dot
	Content      []byte // Raw file bytes
	IsAsset      bool   // True for images and other non-markdown files
}
