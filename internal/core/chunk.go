package core

// DefaultMaxRows is the chunk size used when none is configured.
const DefaultMaxRows = 240

// Chunk splits valid into contiguous chunks of at most maxRows records,
// numbered from 1. maxRows <= 0 falls back to DefaultMaxRows.
//
// An empty input still yields one chunk with no rows, so an export always
// produces at least one file.
func Chunk(valid []NormalizedRecord, maxRows int) []ExportChunk {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	if len(valid) == 0 {
		return []ExportChunk{{Index: 1, Rows: []NormalizedRecord{}}}
	}

	chunks := make([]ExportChunk, 0, ChunkCount(len(valid), maxRows))
	for start := 0; start < len(valid); start += maxRows {
		end := min(start+maxRows, len(valid))
		chunks = append(chunks, ExportChunk{
			Index: len(chunks) + 1,
			Rows:  valid[start:end],
		})
	}
	return chunks
}

// ChunkCount returns how many chunks Chunk produces for n records.
func ChunkCount(n, maxRows int) int {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	if n == 0 {
		return 1
	}
	return (n + maxRows - 1) / maxRows
}
