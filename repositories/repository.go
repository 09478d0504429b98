package repositories

import (
	"context"

	"github.com/opencontainers/go-digest"

	"gitlab.com/gitlab-org/ecr-housekeeping/registry"
)

// Repository is a point-in-time view of a registry repository.
type Repository struct {
	Name   string
	Images []registry.Image
}

// FetchImages loads every image of the named repository, most recent first.
func FetchImages(ctx context.Context, client registry.Client, name string) (*Repository, error) {
	images, err := client.Images(name).Collect(ctx)
	if err != nil {
		return nil, err
	}

	SortByPushedAt(images)
	return &Repository{Name: name, Images: images}, nil
}

func digests(images []registry.Image) []digest.Digest {
	ids := make([]digest.Digest, 0, len(images))
	for _, image := range images {
		ids = append(ids, image.Digest)
	}
	return ids
}

func sizes(images []registry.Image) map[digest.Digest]int64 {
	sizes := make(map[digest.Digest]int64, len(images))
	for _, image := range images {
		sizes[image.Digest] = image.Size
	}
	return sizes
}
