package flags

import (
	"fmt"
	"slices"

	"github.com/distribution/reference"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"gitlab.com/gitlab-org/ecr-housekeeping/config"
	"gitlab.com/gitlab-org/ecr-housekeeping/registry"
	"gitlab.com/gitlab-org/ecr-housekeeping/repositories"
	"gitlab.com/gitlab-org/ecr-housekeeping/schedule"
)

type Options struct {
	Config string

	KeepLatest int
	KeepDays   int
	SkipRepos  []string

	Region     string
	Profile    string
	MaxRetries int

	Schedule string

	Debug   bool
	Verbose bool
}

func Register(fs *pflag.FlagSet) *Options {
	o := &Options{}

	fs.StringVar(&o.Config, "config", "", "Path to housekeeping config file")

	fs.IntVar(&o.KeepLatest, "keep-latest", 30, "Number of latest push image to keep")
	fs.IntVar(&o.KeepDays, "keep-day", 90, "Number of days to keep")
	fs.StringArrayVarP(&o.SkipRepos, "skip-repo", "s", nil, "Repo want to skip, can be repeated")

	fs.StringVar(&o.Region, "region", "", "AWS region, defaults to the shared AWS configuration")
	fs.StringVar(&o.Profile, "profile", "", "AWS shared config profile")
	fs.IntVar(&o.MaxRetries, "max-retries", 5, "Maximum retries of a throttled or failed registry call")

	fs.StringVar(&o.Schedule, "schedule", "", "Cron expression; when set, keep running and clean on this schedule")

	fs.BoolVar(&o.Debug, "debug", false, "Print debug messages")
	fs.BoolVar(&o.Verbose, "verbose", true, "Print verbose messages")

	return o
}

// Merge fills options from a config file. Flags set on the command line win;
// skip lists from both sources are combined.
func (o *Options) Merge(file *config.File, fs *pflag.FlagSet) {
	if file.KeepLatest != nil && !fs.Changed("keep-latest") {
		o.KeepLatest = *file.KeepLatest
	}
	if file.KeepDays != nil && !fs.Changed("keep-day") {
		o.KeepDays = *file.KeepDays
	}
	if file.Region != "" && !fs.Changed("region") {
		o.Region = file.Region
	}
	if file.Profile != "" && !fs.Changed("profile") {
		o.Profile = file.Profile
	}
	if file.MaxRetries != nil && !fs.Changed("max-retries") {
		o.MaxRetries = *file.MaxRetries
	}
	if file.Schedule != "" && !fs.Changed("schedule") {
		o.Schedule = file.Schedule
	}

	for _, name := range file.SkipRepos {
		if !slices.Contains(o.SkipRepos, name) {
			o.SkipRepos = append(o.SkipRepos, name)
		}
	}
}

func (o *Options) Validate() error {
	if err := o.Policy().Validate(); err != nil {
		return &ConfigError{Err: err}
	}

	if o.MaxRetries < 0 {
		return &ConfigError{Err: fmt.Errorf("max-retries must not be negative: %d", o.MaxRetries)}
	}

	for _, name := range o.SkipRepos {
		if err := validateRepositoryName(name); err != nil {
			return &ConfigError{Err: err}
		}
	}

	if o.Schedule != "" {
		if _, err := schedule.Parse(o.Schedule); err != nil {
			return &ConfigError{Err: err}
		}
	}

	return nil
}

func (o *Options) Policy() repositories.Policy {
	return repositories.Policy{KeepLatest: o.KeepLatest, KeepDays: o.KeepDays}
}

func (o *Options) SessionOptions() registry.SessionOptions {
	return registry.SessionOptions{
		Region:     o.Region,
		Profile:    o.Profile,
		MaxRetries: o.MaxRetries,
	}
}

func (o *Options) ConfigureLogging() {
	if o.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else if o.Verbose {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func validateRepositoryName(name string) error {
	ref, err := reference.Parse(name)
	if err != nil {
		return fmt.Errorf("invalid skip-repo %q: %w", name, err)
	}

	named, ok := ref.(reference.Named)
	if !ok || !reference.IsNameOnly(named) {
		return fmt.Errorf("invalid skip-repo %q: must be a repository name without tag or digest", name)
	}
	return nil
}
