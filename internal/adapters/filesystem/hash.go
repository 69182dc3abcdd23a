package filesystem

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// ErrTooLarge marks a file skipped because it exceeds the configured
// hashing ceiling.
var ErrTooLarge = fmt.Errorf("file exceeds hash size limit")

// HashFile returns the hex SHA-256 of the file's full content. Binary
// and text files are treated identically. A sizeLimit of zero means
// unlimited; a larger file returns ErrTooLarge so the caller can flag
// it skipped instead of stalling the run.
func HashFile(path string, sizeLimit int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if sizeLimit > 0 {
		info, err := f.Stat()
		if err != nil {
			return "", err
		}
		if info.Size() > sizeLimit {
			return "", ErrTooLarge
		}
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
