package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/opencontainers/go-digest"
)

// Image is a snapshot of a single image manifest as reported by the registry.
type Image struct {
	Digest         digest.Digest
	PushedAt       time.Time
	RepositoryName string
	Size           int64
	Tags           []string
}

// ImageFailure describes an image the registry refused to delete.
type ImageFailure struct {
	Digest digest.Digest
	Code   string
	Reason string
}

func (f ImageFailure) Error() string {
	return fmt.Sprintf("%s: %s: %s", f.Digest, f.Code, f.Reason)
}

type DeleteResult struct {
	Deleted  []digest.Digest
	Failures []ImageFailure
}

// Client is the registry boundary the housekeeping pass runs against.
type Client interface {
	Repositories() Pages[string]
	Images(repository string) Pages[Image]
	// DeleteImages removes digests from repository in a single call. Callers
	// keep len(digests) within MaxDeleteBatch.
	DeleteImages(ctx context.Context, repository string, digests []digest.Digest) (DeleteResult, error)
}
