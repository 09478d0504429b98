package repositories

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/opencontainers/go-digest"

	"gitlab.com/gitlab-org/ecr-housekeeping/registry"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type deleteCall struct {
	repository string
	digests    []digest.Digest
}

type fakeClient struct {
	repositoryPages [][]string
	listErr         error

	images    map[string][]registry.Image
	imageErrs map[string]error

	deleteErrs map[string]error
	failures   map[digest.Digest]string

	fetched []string
	deletes []deleteCall

	onFetch func(repository string)
}

var _ registry.Client = (*fakeClient)(nil)

func (f *fakeClient) Repositories() registry.Pages[string] {
	return registry.NewPages(func(ctx context.Context, token string) ([]string, string, error) {
		index := 0
		if token != "" {
			index, _ = strconv.Atoi(token)
		}
		if index >= len(f.repositoryPages) {
			return nil, "", f.listErr
		}

		next := ""
		if index+1 < len(f.repositoryPages) || f.listErr != nil {
			next = strconv.Itoa(index + 1)
		}
		return f.repositoryPages[index], next, nil
	})
}

func (f *fakeClient) Images(repository string) registry.Pages[registry.Image] {
	return registry.NewPages(func(ctx context.Context, token string) ([]registry.Image, string, error) {
		f.fetched = append(f.fetched, repository)
		if f.onFetch != nil {
			f.onFetch(repository)
		}
		if err := f.imageErrs[repository]; err != nil {
			return nil, "", err
		}
		return f.images[repository], "", nil
	})
}

func (f *fakeClient) DeleteImages(ctx context.Context, repository string, digests []digest.Digest) (registry.DeleteResult, error) {
	f.deletes = append(f.deletes, deleteCall{repository: repository, digests: digests})
	if err := f.deleteErrs[repository]; err != nil {
		return registry.DeleteResult{}, err
	}

	var result registry.DeleteResult
	for _, d := range digests {
		if code, ok := f.failures[d]; ok {
			result.Failures = append(result.Failures, registry.ImageFailure{Digest: d, Code: code, Reason: "refused"})
			continue
		}
		result.Deleted = append(result.Deleted, d)
	}
	return result, nil
}

func (f *fakeClient) deletedDigests(repository string) []digest.Digest {
	var all []digest.Digest
	for _, call := range f.deletes {
		if call.repository == repository {
			all = append(all, call.digests...)
		}
	}
	return all
}

// imagesAged builds n images, most recent first, where age(i) is how long
// before now image i was pushed.
func imagesAged(repository string, n int, age func(i int) time.Duration) []registry.Image {
	images := make([]registry.Image, n)
	for i := range images {
		images[i] = registry.Image{
			Digest:         digest.FromString(fmt.Sprintf("%s-%d", repository, i)),
			PushedAt:       now.Add(-age(i)),
			RepositoryName: repository,
			Size:           1000,
		}
	}
	return images
}

func pushedToday(int) time.Duration {
	return time.Minute
}

func newTestCleaner(client registry.Client, policy Policy, out *[]string) *Cleaner {
	c := NewCleaner(client, policy, writerFunc(func(p []byte) (int, error) {
		*out = append(*out, string(p))
		return len(p), nil
	}))
	c.now = func() time.Time { return now }
	return c
}

type writerFunc func(p []byte) (int, error)

func (w writerFunc) Write(p []byte) (int, error) {
	return w(p)
}
