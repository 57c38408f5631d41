// Package ingest turns command-line paths and watched directories into the
// list of documents a batch processes.
package ingest

// Options controls directory expansion.
type Options struct {
	// Exts overrides constants.AllowedExtensions when non-empty. Entries may
	// carry a leading dot and any case.
	Exts []string
	// IncludeHidden keeps dot-files and descends into dot-directories.
	IncludeHidden bool
}

// Stats summarizes one expansion.
type Stats struct {
	Scanned    uint32
	Matched    uint32
	Duplicates uint32
}
