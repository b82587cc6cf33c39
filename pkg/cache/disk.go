package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/pierrec/lz4/v4"
)

const (
	dirPerm  = 0o750
	filePerm = 0o600
	entryExt = ".lz4"

	// headerSize is the mode byte plus the little-endian uncompressed length.
	headerSize = 5

	modeRaw byte = 0
	modeLZ4 byte = 1
)

// errCorrupt marks an entry whose header or payload does not decode.
var errCorrupt = errors.New("corrupt cache entry")

// DiskStore keeps LZ4-compressed entries under a directory, one file per key.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the store directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	mkErr := os.MkdirAll(dir, dirPerm)
	if mkErr != nil {
		return nil, fmt.Errorf("cache mkdir: %w", mkErr)
	}

	return &DiskStore{dir: dir}, nil
}

// Get loads the value stored under key. Missing and corrupt entries are
// reported as absent; corrupt files are removed.
func (s *DiskStore) Get(key string) (string, bool) {
	path := s.path(key)

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return "", false
	}

	value, decodeErr := decodeEntry(data)
	if decodeErr != nil {
		os.Remove(path)

		return "", false
	}

	return value, true
}

// Put writes value under key atomically. Concurrent writers of the same key
// each use their own temporary file.
func (s *DiskStore) Put(key, value string) error {
	path := s.path(key)

	mkErr := os.MkdirAll(filepath.Dir(path), dirPerm)
	if mkErr != nil {
		return fmt.Errorf("cache mkdir: %w", mkErr)
	}

	writeErr := renameio.WriteFile(path, encodeEntry(value), filePerm)
	if writeErr != nil {
		return fmt.Errorf("cache write: %w", writeErr)
	}

	return nil
}

// path shards entries by the first two characters of the key.
func (s *DiskStore) path(key string) string {
	if len(key) < 2 {
		return filepath.Join(s.dir, key+entryExt)
	}

	return filepath.Join(s.dir, key[:2], key+entryExt)
}

func encodeEntry(value string) []byte {
	src := []byte(value)
	out := make([]byte, headerSize, headerSize+lz4.CompressBlockBound(len(src)))

	binary.LittleEndian.PutUint32(out[1:], uint32(len(src))) //nolint:gosec // comments are far below 4 GB

	compressed := make([]byte, lz4.CompressBlockBound(len(src)))

	written, err := lz4.CompressBlock(src, compressed, nil)
	if err != nil || written == 0 || written >= len(src) {
		out[0] = modeRaw

		return append(out, src...)
	}

	out[0] = modeLZ4

	return append(out, compressed[:written]...)
}

func decodeEntry(data []byte) (string, error) {
	if len(data) < headerSize {
		return "", errCorrupt
	}

	size := int(binary.LittleEndian.Uint32(data[1:headerSize]))
	payload := data[headerSize:]

	switch data[0] {
	case modeRaw:
		if len(payload) != size {
			return "", errCorrupt
		}

		return string(payload), nil
	case modeLZ4:
		out := make([]byte, size)

		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return "", fmt.Errorf("%w: %w", errCorrupt, err)
		}

		if n != size {
			return "", errCorrupt
		}

		return string(out), nil
	default:
		return "", errCorrupt
	}
}
