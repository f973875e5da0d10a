package cache

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

const (
	// MagicBytes identifies a cache snapshot file
	MagicBytes = "FBCK"
	// FormatVersion is the current snapshot layout
	FormatVersion = 1
	// FileExtension for snapshot files
	FileExtension = ".fbck"

	flagCompressed uint8 = 1 << 0
)

// FileHeader represents the header of a snapshot file
type FileHeader struct {
	Magic    [4]byte // "FBCK"
	Version  uint8   // Format version
	Flags    uint8   // flagCompressed when the body is an lz4 block
	Reserved [2]byte
	RawLen   uint32 // Length of the msgpack body before compression
}

// WriteHeader writes the file header to the given writer
func WriteHeader(w io.Writer, flags uint8, rawLen int) error {
	header := FileHeader{
		Magic:   [4]byte{'F', 'B', 'C', 'K'},
		Version: FormatVersion,
		Flags:   flags,
		RawLen:  uint32(rawLen),
	}
	return binary.Write(w, binary.LittleEndian, header)
}

// ReadHeader reads and validates the file header
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	if string(header.Magic[:]) != MagicBytes {
		return nil, fmt.Errorf("invalid file format: expected %s, got %s", MagicBytes, string(header.Magic[:]))
	}

	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported file version: %d", header.Version)
	}

	return &header, nil
}

// snapshotData is the msgpack body of a snapshot file.
type snapshotData struct {
	SavedAt time.Time       `msgpack:"saved_at"`
	Entries []snapshotEntry `msgpack:"entries"`
}

type snapshotEntry struct {
	Collection  string                   `msgpack:"collection"`
	Fingerprint string                   `msgpack:"fingerprint"`
	Documents   []map[string]interface{} `msgpack:"documents"`
	StoredAt    time.Time                `msgpack:"stored_at"`
}
