package repositories

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"

	"gitlab.com/gitlab-org/ecr-housekeeping/deletes"
	"gitlab.com/gitlab-org/ecr-housekeeping/registry"
)

// Cleaner applies a retention policy to repositories one at a time.
type Cleaner struct {
	client    registry.Client
	policy    Policy
	out       io.Writer
	now       func() time.Time
	batchSize int
}

func NewCleaner(client registry.Client, policy Policy, out io.Writer) *Cleaner {
	return &Cleaner{
		client:    client,
		policy:    policy,
		out:       out,
		now:       time.Now,
		batchSize: registry.MaxDeleteBatch,
	}
}

// Run cleans every repository the list yields. Failures are recorded per
// repository and never stop the walk; only a listing failure or
// cancellation of ctx does.
func (c *Cleaner) Run(ctx context.Context, list *List) Summary {
	var summary Summary
	summary.ListErr = list.Walk(ctx, func(name string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		summary.add(c.Clean(ctx, name))
		return nil
	})
	if summary.ListErr != nil {
		logrus.Errorln("REPOSITORIES:", summary.ListErr)
	}
	return summary
}

func (c *Cleaner) Clean(ctx context.Context, name string) Result {
	result := Result{Repository: name}

	repository, err := FetchImages(ctx, c.client, name)
	if err != nil {
		logrus.Errorln("REPOSITORY:", name, ":", err)
		result.Err = err
		return result
	}
	result.Images = len(repository.Images)

	expired := ExpiredImages(repository.Images, c.policy, c.now())
	result.Expired = len(expired)

	if len(expired) == 0 {
		fmt.Fprintf(c.out, "No image fit remove rule from %s repo.\n", name)
		return result
	}

	for _, image := range expired {
		logrus.Debugln("EXPIRED:", name, ":", image.Digest, ": pushed", humanize.Time(image.PushedAt), ":", humanize.Bytes(uint64(image.Size)))
	}

	fmt.Fprintf(c.out, "Removing %d image(s) from %s repo.\n", len(expired), name)

	imageSizes := sizes(expired)
	result.Err = deletes.InBatches(ctx, digests(expired), c.batchSize, func(ctx context.Context, chunk []digest.Digest) error {
		return c.deleteChunk(ctx, name, chunk, imageSizes, &result.Stats)
	})
	if result.Err != nil {
		logrus.Errorln("REPOSITORY:", name, ":", result.Err)
	}
	return result
}

func (c *Cleaner) deleteChunk(ctx context.Context, name string, chunk []digest.Digest, imageSizes map[digest.Digest]int64, stats *deletes.Stats) error {
	stats.Batches++

	deleted, err := c.client.DeleteImages(ctx, name, chunk)
	if err != nil {
		stats.FailedBatches++
		stats.FailedImages += len(chunk)
		return err
	}

	for _, d := range deleted.Deleted {
		logrus.Infoln("DELETE", name, d, imageSizes[d])
		stats.Images++
		stats.Bytes += imageSizes[d]
	}

	var failures *multierror.Error
	for _, failure := range deleted.Failures {
		if failure.Code == registry.ImageNotFound {
			logrus.Debugln("DELETE", name, failure.Digest, ": already gone")
			continue
		}
		stats.FailedImages++
		failures = multierror.Append(failures, failure)
	}

	if failures.ErrorOrNil() != nil {
		stats.FailedBatches++
	}
	return failures.ErrorOrNil()
}
