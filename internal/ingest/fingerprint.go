package ingest

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"trustcast/internal/models"
)

// Fingerprint builds the display label for an upload. The digest hashes the
// file name only; it is not an integrity check.
func Fingerprint(name string, size int64) models.UploadFingerprint {
	return models.UploadFingerprint{
		Name:   name,
		Size:   size,
		Digest: fmt.Sprintf("%016x", xxhash.Sum64String(name))[:8],
	}
}
