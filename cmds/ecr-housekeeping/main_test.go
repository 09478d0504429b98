package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/gitlab-org/ecr-housekeeping/registry"
)

type stubRegistry struct {
	images    map[string][]registry.Image
	imageErrs map[string]error
	deleted   map[string]int
}

func (s *stubRegistry) Repositories() registry.Pages[string] {
	return registry.NewPages(func(ctx context.Context, token string) ([]string, string, error) {
		if token == "" {
			return []string{"app", "base"}, "more", nil
		}
		return []string{"worker"}, "", nil
	})
}

func (s *stubRegistry) Images(repository string) registry.Pages[registry.Image] {
	return registry.NewPages(func(ctx context.Context, token string) ([]registry.Image, string, error) {
		return s.images[repository], "", s.imageErrs[repository]
	})
}

func (s *stubRegistry) DeleteImages(ctx context.Context, repository string, digests []digest.Digest) (registry.DeleteResult, error) {
	s.deleted[repository] += len(digests)
	return registry.DeleteResult{Deleted: digests}, nil
}

func agedImages(repository string, n int, age time.Duration) []registry.Image {
	images := make([]registry.Image, n)
	for i := range images {
		images[i] = registry.Image{
			Digest:         digest.FromString(fmt.Sprintf("%s-%d", repository, i)),
			PushedAt:       time.Now().Add(-age).Add(-time.Duration(i) * time.Second),
			RepositoryName: repository,
		}
	}
	return images
}

func newStub() *stubRegistry {
	return &stubRegistry{
		images: map[string][]registry.Image{
			"app":    agedImages("app", 150, 100*24*time.Hour),
			"base":   agedImages("base", 150, 100*24*time.Hour),
			"worker": agedImages("worker", 5, 100*24*time.Hour),
		},
		imageErrs: map[string]error{},
		deleted:   map[string]int{},
	}
}

type harness struct {
	stub     *stubRegistry
	stdout   bytes.Buffer
	sessions []registry.SessionOptions
}

func (h *harness) execute(args ...string) int {
	// cobra falls back to os.Args when handed a nil slice.
	if args == nil {
		args = []string{}
	}

	a := &app{
		stdout: &h.stdout,
		newClient: func(opts registry.SessionOptions) (registry.Client, error) {
			h.sessions = append(h.sessions, opts)
			return h.stub, nil
		},
	}
	return execute(context.Background(), a, args)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "housekeeping.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSinglePass(t *testing.T) {
	h := &harness{stub: newStub()}

	code := h.execute("-s", "base", "--region", "eu-west-1")

	assert.Equal(t, exitOK, code)
	assert.Equal(t, map[string]int{"app": 120}, h.stub.deleted)

	output := h.stdout.String()
	assert.Contains(t, output, "Removing 120 image(s) from app repo.\n")
	assert.Contains(t, output, "No image fit remove rule from worker repo.\n")
	assert.NotContains(t, output, "base repo")
	assert.Contains(t, output, "2 repo(s) processed, 0 failed, 120 image(s) removed")

	require.Len(t, h.sessions, 1)
	assert.Equal(t, registry.SessionOptions{Region: "eu-west-1", MaxRetries: 5}, h.sessions[0])
}

func TestConfigErrorsExitBeforeRegistryCalls(t *testing.T) {
	tests := map[string][]string{
		"non-integer keep-latest": {"--keep-latest", "thirty"},
		"negative keep-day":       {"--keep-day", "-1"},
		"unknown flag":            {"--dry-run"},
		"positional argument":     {"app"},
		"invalid skip-repo":       {"-s", "App:latest"},
		"missing config file":     {"--config", "/nonexistent/housekeeping.yml"},
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			h := &harness{stub: newStub()}

			assert.Equal(t, exitConfig, h.execute(args...))
			assert.Empty(t, h.sessions)
			assert.Empty(t, h.stdout.String())
		})
	}
}

func TestConfigFileVersionGate(t *testing.T) {
	h := &harness{stub: newStub()}
	path := writeConfig(t, "version: \"1.0\"\nkeep_latest: 3\n")

	assert.Equal(t, exitConfig, h.execute("--config", path))
	assert.Empty(t, h.sessions)
}

func TestConfigFileAppliesRetention(t *testing.T) {
	h := &harness{stub: newStub()}
	path := writeConfig(t, `
version: "0.1"
keep_latest: 100
skip_repos: [worker]
profile: ops
`)

	code := h.execute("--config", path, "-s", "base")

	assert.Equal(t, exitOK, code)
	assert.Equal(t, map[string]int{"app": 50}, h.stub.deleted)
	require.Len(t, h.sessions, 1)
	assert.Equal(t, "ops", h.sessions[0].Profile)
}

func TestRepositoryFailureExitsNonZero(t *testing.T) {
	h := &harness{stub: newStub()}
	h.stub.imageErrs["app"] = errors.New("throttled")

	code := h.execute()

	assert.Equal(t, exitFailures, code)
	assert.Equal(t, 120, h.stub.deleted["base"])
	assert.Contains(t, h.stdout.String(), "3 repo(s) processed, 1 failed")
}

func TestClientConstructionFailure(t *testing.T) {
	a := &app{
		stdout: &bytes.Buffer{},
		newClient: func(registry.SessionOptions) (registry.Client, error) {
			return nil, errors.New("no credentials")
		},
	}

	assert.Equal(t, exitFailures, execute(context.Background(), a, []string{}))
}
