package archive

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// checksumChunkSize is the read buffer size for streaming digests. Archives
// can be large; they are hashed in fixed-size chunks rather than loaded
// into memory.
const checksumChunkSize = 8192

// ChecksumFile computes the SHA-512 digest of a file, streaming its content
// in fixed-size chunks, and returns the lowercase hex encoding.
func ChecksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for checksum: %w", path, err)
	}
	defer f.Close()

	h := sha512.New()
	buf := make([]byte, checksumChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("failed to checksum %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteChecksumSidecar computes a file's SHA-512 digest and writes it to a
// sidecar file next to the original, named "<file>.sha512". The sidecar
// contains the hex digest followed by a newline. Returns the sidecar path.
func WriteChecksumSidecar(path string) (string, error) {
	digest, err := ChecksumFile(path)
	if err != nil {
		return "", err
	}
	sidecar := path + ".sha512"
	if err := os.WriteFile(sidecar, []byte(digest+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to write checksum sidecar %s: %w", sidecar, err)
	}
	return sidecar, nil
}
