package hashutil

import (
	"crypto/sha256"
	"fmt"

	"github.com/pimp-project/pimp-install/pkg/filesystem"
)

// FileChecksum returns the SHA256 checksum of a file as "sha256:<hex>".
func FileChecksum(fsys filesystem.FS, path string) (string, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Checksum(data), nil
}

// Checksum formats the SHA256 checksum of data like FileChecksum.
func Checksum(data []byte) string {
	return fmt.Sprintf("sha256:%x", sha256.Sum256(data))
}
