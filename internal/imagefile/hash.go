package imagefile

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// Hash returns the BLAKE2b-256 hex digest of the file at path.
// The history database stores it so repeated runs can tell whether a
// destination file's content actually changed between downloads.
func Hash(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // Path is the row's destination file
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create hasher: %w", err)
	}

	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
