package core

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/klauspost/compress/flate"
)

// ArchiveName is the file name of the bundle handed back to the user.
const ArchiveName = "clients_cleaned.zip"

// ChunkFile is a serialized chunk waiting to be archived.
type ChunkFile struct {
	Index int
	Ext   string
	Path  string // file on disk holding the serialized chunk
}

// Name returns the member name used inside the archive.
func (c ChunkFile) Name() string {
	return ChunkFileName(c.Index, c.Ext)
}

// BuildArchive writes a zip containing every chunk file, ordered by index.
// level is a deflate level from -1 (default) to 9.
func BuildArchive(w io.Writer, files []ChunkFile, level int) error {
	ordered := slices.Clone(files)
	slices.SortStableFunc(ordered, func(a, b ChunkFile) int { return a.Index - b.Index })

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	for _, cf := range ordered {
		if err := addMember(zw, cf); err != nil {
			zw.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}

func addMember(zw *zip.Writer, cf ChunkFile) error {
	src, err := os.Open(cf.Path)
	if err != nil {
		return fmt.Errorf("open chunk %d: %w", cf.Index, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat chunk %d: %w", cf.Index, err)
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("header for chunk %d: %w", cf.Index, err)
	}
	hdr.Name = cf.Name()
	hdr.Method = zip.Deflate

	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("create member %s: %w", hdr.Name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy member %s: %w", hdr.Name, err)
	}
	return nil
}
