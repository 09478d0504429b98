package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

const supportedVersion = "0.1"

// File is the on-disk configuration. Pointer fields distinguish "unset" from
// an explicit zero.
type File struct {
	Version    string   `yaml:"version"`
	KeepLatest *int     `yaml:"keep_latest"`
	KeepDays   *int     `yaml:"keep_day"`
	SkipRepos  []string `yaml:"skip_repos"`
	Region     string   `yaml:"region"`
	Profile    string   `yaml:"profile"`
	MaxRetries *int     `yaml:"max_retries"`
	Schedule   string   `yaml:"schedule"`
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	file := &File{}
	err := yaml.UnmarshalStrict(data, file)
	if err != nil {
		return nil, err
	}

	if file.Version != supportedVersion {
		return nil, fmt.Errorf("only %s version is supported, got %q", supportedVersion, file.Version)
	}

	if file.KeepLatest != nil && *file.KeepLatest < 0 {
		return nil, errors.New("keep_latest must not be negative")
	}

	if file.KeepDays != nil && *file.KeepDays < 0 {
		return nil, errors.New("keep_day must not be negative")
	}

	return file, nil
}
