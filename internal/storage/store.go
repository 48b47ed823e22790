// Package storage is the object store for uploaded registration
// documents. Paths are namespaced by the owning identity and document
// type and timestamped so retried submissions never collide.
package storage

import (
	"context"
	"fmt"
	"time"

	id "jiran/pkg/domain"
)

// Store is the object storage contract the orchestrator consumes.
//
// Error contract:
//   - Upload returns sentinel.ErrAlreadyUsed if the path is taken
//   - wrapped errors with context for infrastructure failures
type Store interface {
	// Upload writes the object and returns its storage path.
	Upload(ctx context.Context, path, contentType string, content []byte) (string, error)
	// PublicURL derives the public URL for a stored path. Pure.
	PublicURL(path string) string
}

// DocumentPath builds the canonical object path for a registration
// document: {userID}/{documentType}/{unix-millis}-{originalFileName}.
func DocumentPath(userID id.UserID, documentType, fileName string, now time.Time) string {
	return fmt.Sprintf("%s/%s/%d-%s", userID, documentType, now.UnixMilli(), fileName)
}
