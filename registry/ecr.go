package registry

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ecr"
	"github.com/aws/aws-sdk-go/service/ecr/ecriface"
	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"
)

const (
	// MaxDeleteBatch is the BatchDeleteImage per-call limit.
	MaxDeleteBatch = 100

	repositoriesListMax = 100
	imagesListMax       = 1000
)

// ImageNotFound is the failure code ECR reports for digests that are already gone.
const ImageNotFound = ecr.ImageFailureCodeImageNotFound

type ECR struct {
	api ecriface.ECRAPI
}

var _ Client = (*ECR)(nil)

func NewECR(api ecriface.ECRAPI) *ECR {
	return &ECR{api: api}
}

func (e *ECR) Repositories() Pages[string] {
	return NewPages(func(ctx context.Context, token string) ([]string, string, error) {
		input := &ecr.DescribeRepositoriesInput{
			MaxResults: aws.Int64(repositoriesListMax),
		}
		if token != "" {
			input.NextToken = aws.String(token)
		}

		resp, err := e.api.DescribeRepositoriesWithContext(ctx, input)
		if err != nil {
			return nil, "", fmt.Errorf("describe repositories: %w", err)
		}

		names := make([]string, 0, len(resp.Repositories))
		for _, repository := range resp.Repositories {
			names = append(names, aws.StringValue(repository.RepositoryName))
		}
		return names, aws.StringValue(resp.NextToken), nil
	})
}

func (e *ECR) Images(repository string) Pages[Image] {
	return NewPages(func(ctx context.Context, token string) ([]Image, string, error) {
		input := &ecr.DescribeImagesInput{
			RepositoryName: aws.String(repository),
			Filter:         &ecr.DescribeImagesFilter{TagStatus: aws.String(ecr.TagStatusAny)},
			MaxResults:     aws.Int64(imagesListMax),
		}
		if token != "" {
			input.NextToken = aws.String(token)
		}

		resp, err := e.api.DescribeImagesWithContext(ctx, input)
		if err != nil {
			return nil, "", fmt.Errorf("describe images of %s: %w", repository, err)
		}

		images := make([]Image, 0, len(resp.ImageDetails))
		for _, detail := range resp.ImageDetails {
			image, err := imageFromDetail(repository, detail)
			if err != nil {
				logrus.Warningln("IMAGE:", repository, ":", err)
				continue
			}
			images = append(images, image)
		}
		return images, aws.StringValue(resp.NextToken), nil
	})
}

func (e *ECR) DeleteImages(ctx context.Context, repository string, digests []digest.Digest) (DeleteResult, error) {
	if len(digests) > MaxDeleteBatch {
		return DeleteResult{}, fmt.Errorf("cannot delete %d images in one call, limit is %d", len(digests), MaxDeleteBatch)
	}

	ids := make([]*ecr.ImageIdentifier, 0, len(digests))
	for _, d := range digests {
		ids = append(ids, &ecr.ImageIdentifier{ImageDigest: aws.String(d.String())})
	}

	resp, err := e.api.BatchDeleteImageWithContext(ctx, &ecr.BatchDeleteImageInput{
		RepositoryName: aws.String(repository),
		ImageIds:       ids,
	})
	if err != nil {
		return DeleteResult{}, fmt.Errorf("batch delete images of %s: %w", repository, err)
	}

	var result DeleteResult
	for _, id := range resp.ImageIds {
		result.Deleted = append(result.Deleted, digest.Digest(aws.StringValue(id.ImageDigest)))
	}
	for _, failure := range resp.Failures {
		f := ImageFailure{
			Code:   aws.StringValue(failure.FailureCode),
			Reason: aws.StringValue(failure.FailureReason),
		}
		if failure.ImageId != nil {
			f.Digest = digest.Digest(aws.StringValue(failure.ImageId.ImageDigest))
		}
		result.Failures = append(result.Failures, f)
	}
	return result, nil
}

func imageFromDetail(repository string, detail *ecr.ImageDetail) (Image, error) {
	d, err := digest.Parse(aws.StringValue(detail.ImageDigest))
	if err != nil {
		return Image{}, fmt.Errorf("invalid digest %q: %w", aws.StringValue(detail.ImageDigest), err)
	}

	if detail.ImagePushedAt == nil {
		return Image{}, fmt.Errorf("%s has no push time", d)
	}

	return Image{
		Digest:         d,
		PushedAt:       detail.ImagePushedAt.UTC(),
		RepositoryName: repository,
		Size:           aws.Int64Value(detail.ImageSizeInBytes),
		Tags:           aws.StringValueSlice(detail.ImageTags),
	}, nil
}
