package repositories

import (
	"fmt"
	"slices"
	"time"

	"gitlab.com/gitlab-org/ecr-housekeeping/registry"
)

const day = 24 * time.Hour

// Policy is the retention window: the KeepLatest most recent images are
// always kept, and so is anything pushed within the last KeepDays days.
type Policy struct {
	KeepLatest int
	KeepDays   int
}

func (p Policy) Validate() error {
	if p.KeepLatest < 0 {
		return fmt.Errorf("keep-latest must not be negative: %d", p.KeepLatest)
	}
	if p.KeepDays < 0 {
		return fmt.Errorf("keep-day must not be negative: %d", p.KeepDays)
	}
	return nil
}

func (p Policy) Cutoff(now time.Time) time.Time {
	return now.UTC().Add(-time.Duration(p.KeepDays) * day)
}

// SortByPushedAt orders images most recent first. Images pushed at the same
// instant keep their relative order.
func SortByPushedAt(images []registry.Image) {
	slices.SortStableFunc(images, func(a, b registry.Image) int {
		return b.PushedAt.Compare(a.PushedAt)
	})
}

// ExpiredImages returns the images that are both outside the KeepLatest most
// recent and pushed strictly before the cutoff. images is left untouched.
func ExpiredImages(images []registry.Image, policy Policy, now time.Time) []registry.Image {
	if len(images) <= policy.KeepLatest {
		return nil
	}

	sorted := slices.Clone(images)
	SortByPushedAt(sorted)

	cutoff := policy.Cutoff(now)

	var expired []registry.Image
	for _, image := range sorted[policy.KeepLatest:] {
		if image.PushedAt.Before(cutoff) {
			expired = append(expired, image)
		}
	}
	return expired
}
