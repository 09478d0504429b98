package repositories

import (
	"context"

	"github.com/sirupsen/logrus"

	"gitlab.com/gitlab-org/ecr-housekeeping/registry"
)

// List enumerates the repositories of a registry minus a skip set.
type List struct {
	client registry.Client
	skip   map[string]struct{}
}

func NewList(client registry.Client, skip []string) *List {
	set := make(map[string]struct{}, len(skip))
	for _, name := range skip {
		set[name] = struct{}{}
	}
	return &List{client: client, skip: set}
}

func (l *List) Skipped(name string) bool {
	_, ok := l.skip[name]
	return ok
}

// Walk calls fn for every repository that is not skipped, page by page. It
// stops at the first listing error or the first error returned by fn.
func (l *List) Walk(ctx context.Context, fn func(name string) error) error {
	for page, err := range l.client.Repositories().All(ctx) {
		if err != nil {
			return err
		}

		for _, name := range page {
			if l.Skipped(name) {
				logrus.Debugln("REPOSITORY:", name, ": skipped")
				continue
			}

			if err := fn(name); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *List) Names(ctx context.Context) ([]string, error) {
	var names []string
	err := l.Walk(ctx, func(name string) error {
		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}
