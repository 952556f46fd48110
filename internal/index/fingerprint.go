package index

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// fingerprintChunk is how much of each end of a file is hashed.
const fingerprintChunk = 64 << 10

// Fingerprint identifies file content without reading the whole file: a
// BLAKE2b-256 digest of the size, the first 64 KiB and the last 64 KiB.
// Two files with equal fingerprints are treated as the same movie.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return "", err
	}
	size := fi.Size()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("init hash: %w", err)
	}
	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], uint64(size))
	_, _ = h.Write(sizeBuf[:])

	if _, err := io.Copy(h, io.NewSectionReader(f, 0, min(size, fingerprintChunk))); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	if size > fingerprintChunk {
		tail := max(fingerprintChunk, size-fingerprintChunk)
		if _, err := io.Copy(h, io.NewSectionReader(f, tail, size-tail)); err != nil {
			return "", fmt.Errorf("hash %s: %w", path, err)
		}
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}
