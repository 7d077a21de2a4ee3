package output

import "github.com/dustin/go-humanize"

// FormatGraphFileSize renders a serialized binary graph file's byte count
// in human-readable form (e.g. "482 kB"), for CLI summaries after `build`
// writes the zstd-compressed graph to disk.
func FormatGraphFileSize(bytes int64) string {
	return humanize.Bytes(uint64(bytes))
}
