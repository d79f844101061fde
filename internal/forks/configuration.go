package forks

import "strings"

const (
	storageConfigurationKeyConstant          = "storage"
	outputConfigurationKeyConstant           = "output"
	githubConfigurationKeyConstant           = "github"
	basePathConfigurationKeyConstant         = storageConfigurationKeyConstant + ".base_path"
	outputFormatConfigurationKeyConstant     = outputConfigurationKeyConstant + ".format"
	outputColorConfigurationKeyConstant      = outputConfigurationKeyConstant + ".color"
	forkListLimitConfigurationKeyConstant    = githubConfigurationKeyConstant + ".fork_list_limit"
	pullRequestLimitConfigurationKeyConstant = githubConfigurationKeyConstant + ".pull_request_limit"
	fallbackBranchConfigurationKeyConstant   = githubConfigurationKeyConstant + ".fallback_branch"
	defaultBasePathConstant                  = "."
	defaultForkListLimitConstant             = 100
	defaultPullRequestLimitConstant          = 50
)

// CommandConfiguration captures the configuration shared by the fork commands.
type CommandConfiguration struct {
	Storage StorageConfiguration `mapstructure:"storage"`
	Output  OutputConfiguration  `mapstructure:"output"`
	GitHub  GitHubConfiguration  `mapstructure:"github"`
}

// StorageConfiguration locates the directory that holds the .forker storage root.
type StorageConfiguration struct {
	BasePath string `mapstructure:"base_path"`
}

// OutputConfiguration selects how reports are rendered.
type OutputConfiguration struct {
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// GitHubConfiguration tunes the GitHub CLI queries.
type GitHubConfiguration struct {
	ForkListLimit    int    `mapstructure:"fork_list_limit"`
	PullRequestLimit int    `mapstructure:"pull_request_limit"`
	FallbackBranch   string `mapstructure:"fallback_branch"`
}

// DefaultCommandConfiguration provides baseline configuration values for the fork commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Storage: StorageConfiguration{BasePath: defaultBasePathConstant},
		Output:  OutputConfiguration{Format: string(OutputFormatText), Color: false},
		GitHub: GitHubConfiguration{
			ForkListLimit:    defaultForkListLimitConstant,
			PullRequestLimit: defaultPullRequestLimitConstant,
			FallbackBranch:   defaultFallbackBranchConstant,
		},
	}
}

// DefaultConfigurationValues produces Viper defaults for the fork commands.
func DefaultConfigurationValues() map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		basePathConfigurationKeyConstant:         defaults.Storage.BasePath,
		outputFormatConfigurationKeyConstant:     defaults.Output.Format,
		outputColorConfigurationKeyConstant:      defaults.Output.Color,
		forkListLimitConfigurationKeyConstant:    defaults.GitHub.ForkListLimit,
		pullRequestLimitConfigurationKeyConstant: defaults.GitHub.PullRequestLimit,
		fallbackBranchConfigurationKeyConstant:   defaults.GitHub.FallbackBranch,
	}
}

// Sanitize trims configuration values and restores defaults for blank or non-positive entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.Storage.BasePath = strings.TrimSpace(configuration.Storage.BasePath)
	if len(sanitized.Storage.BasePath) == 0 {
		sanitized.Storage.BasePath = defaults.Storage.BasePath
	}

	sanitized.Output.Format = strings.ToLower(strings.TrimSpace(configuration.Output.Format))
	if len(sanitized.Output.Format) == 0 {
		sanitized.Output.Format = defaults.Output.Format
	}

	if sanitized.GitHub.ForkListLimit <= 0 {
		sanitized.GitHub.ForkListLimit = defaults.GitHub.ForkListLimit
	}
	if sanitized.GitHub.PullRequestLimit <= 0 {
		sanitized.GitHub.PullRequestLimit = defaults.GitHub.PullRequestLimit
	}

	sanitized.GitHub.FallbackBranch = strings.TrimSpace(configuration.GitHub.FallbackBranch)
	if len(sanitized.GitHub.FallbackBranch) == 0 {
		sanitized.GitHub.FallbackBranch = defaults.GitHub.FallbackBranch
	}

	return sanitized
}
