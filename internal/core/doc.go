// Package core cleans contact spreadsheets.
//
// It holds the domain logic independent of any transport, so the web
// handlers, the CLI and tests all drive the same code.
//
// # Pipeline
//
//  1. [ReadSheet] decodes an .xlsx workbook or delimited text into a [Sheet];
//     [Sheet.Records] projects it onto the name and number columns.
//  2. [Classify] normalizes each number against a phone.Table, rejects rows
//     with an empty name or unusable number, and drops exact duplicates.
//  3. [Chunk] splits the valid rows into groups of at most MaxRows.
//  4. A [ChunkWriter] serializes each chunk; [BuildArchive] zips them as
//     clients_<index>.<ext>.
//
// [Service.Clean] runs the whole pipeline inside a per-job [Workspace] and
// bounds concurrency with a [JobLimiter]. [StartScratchJanitor] removes
// workspaces orphaned by a crash.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError].
// Each category has a code for support reference:
//
//   - FILE001-FILE005: file errors (size, format, missing, empty)
//   - VAL005: column not found
//   - UPL002-UPL005: busy, cancelled, timed out
//   - RATE001: rate limited
//   - ERR000: anything else, with the cause attached
package core
