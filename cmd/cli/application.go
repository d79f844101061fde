package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/forker/internal/forks"
	"github.com/temirov/forker/internal/utils"
	flagutils "github.com/temirov/forker/internal/utils/flags"
)

const (
	applicationNameConstant                       = "forker"
	applicationShortDescriptionConstant           = "Track GitHub forks and their fork networks"
	applicationLongDescriptionConstant            = "forker creates and lists forks through the GitHub CLI, records them under a local .forker directory and reports on their divergence, peer forks, pull requests and activity."
	configFileFlagNameConstant                    = "config"
	configFileFlagUsageConstant                   = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                      = "log-level"
	logLevelFlagUsageConstant                     = "Override the configured log level."
	logFormatFlagNameConstant                     = "log-format"
	logFormatFlagUsageConstant                    = "Override the configured log format."
	basePathFlagNameConstant                      = "base-path"
	basePathFlagUsageConstant                     = "Directory that holds the .forker storage root."
	outputFlagNameConstant                        = "output"
	outputFlagUsageConstant                       = "Report format."
	colorFlagNameConstant                         = "color"
	colorFlagUsageConstant                        = "Style text reports with ANSI colors."
	commonConfigurationKeyConstant                = "common"
	commonLogLevelConfigKeyConstant               = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant              = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant                     = "FORKER"
	configurationSearchPathEnvironmentName        = "FORKER_CONFIG_SEARCH_PATH"
	configurationNameConstant                     = "config"
	configurationTypeConstant                     = "yaml"
	configurationInitializedMessageConstant       = "configuration initialized"
	configurationLogLevelFieldConstant            = "log_level"
	configurationLogFormatFieldConstant           = "log_format"
	configurationFileFieldConstant                = "config_file"
	configurationExecutionIdentifierFieldConstant = "execution_id"
	configurationLoadErrorTemplateConstant        = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant           = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant               = "unable to flush logger: %w"
	rootCommandDebugMessageConstant               = "forker CLI diagnostics"
	logFieldCommandNameConstant                   = "command_name"
	logFieldArgumentsConstant                     = "arguments"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Forks  forks.CommandConfiguration     `mapstructure:",squash"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationStreams binds the application to its output streams.
type ApplicationStreams struct {
	Output      io.Writer
	Diagnostics io.Writer
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	basePathFlagValue      string
	outputFlagValue        string
	colorFlagValue         bool
	commandContextAccessor utils.CommandContextAccessor
	diagnosticOutput       io.Writer
}

// NewApplication assembles a CLI application bound to the process streams.
func NewApplication() *Application {
	return NewApplicationWithStreams(ApplicationStreams{Output: os.Stdout, Diagnostics: os.Stderr})
}

// NewApplicationWithStreams assembles a fully wired CLI application writing reports to streams.Output
// and diagnostics to streams.Diagnostics.
func NewApplicationWithStreams(streams ApplicationStreams) *Application {
	embeddedConfiguration, embeddedConfigurationType := EmbeddedDefaultConfiguration()
	configurationLoader := utils.NewConfigurationLoader(utils.ConfigurationLoaderOptions{
		Name:                      configurationNameConstant,
		Type:                      configurationTypeConstant,
		EnvironmentPrefix:         environmentPrefixConstant,
		SearchPaths:               utils.ConfigurationSearchPaths(configurationSearchPathEnvironmentName, applicationNameConstant),
		EmbeddedConfiguration:     embeddedConfiguration,
		EmbeddedConfigurationType: embeddedConfigurationType,
	})

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		diagnosticOutput:       streams.Diagnostics,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	if streams.Output != nil {
		cobraCommand.SetOut(streams.Output)
	}
	if streams.Diagnostics != nil {
		cobraCommand.SetErr(streams.Diagnostics)
	}

	persistentFlags := cobraCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	flagutils.AddChoiceFlag(persistentFlags, &application.logLevelFlagValue, logLevelFlagNameConstant, string(utils.LogLevelWarn), utils.LogLevels(), logLevelFlagUsageConstant)
	flagutils.AddChoiceFlag(persistentFlags, &application.logFormatFlagValue, logFormatFlagNameConstant, string(utils.LogFormatConsole), utils.LogFormats(), logFormatFlagUsageConstant)
	persistentFlags.StringVar(&application.basePathFlagValue, basePathFlagNameConstant, "", basePathFlagUsageConstant)
	flagutils.AddChoiceFlag(persistentFlags, &application.outputFlagValue, outputFlagNameConstant, string(forks.OutputFormatText), forks.OutputFormats(), outputFlagUsageConstant)
	flagutils.AddToggleFlag(persistentFlags, &application.colorFlagValue, colorFlagNameConstant, "", false, colorFlagUsageConstant)

	forkCommandBuilder := forks.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		ConfigurationProvider: func() forks.CommandConfiguration {
			return application.configuration.Forks
		},
	}
	forkCommands, forkCommandsBuildError := forkCommandBuilder.Build()
	if forkCommandsBuildError == nil {
		cobraCommand.AddCommand(forkCommands...)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// ExecuteWithArguments runs the command hierarchy against the provided arguments, excluding the program name.
func (application *Application) ExecuteWithArguments(arguments []string) error {
	application.rootCommand.SetArgs(flagutils.NormalizeToggleArguments(arguments))
	return application.Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelWarn),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatConsole),
	}
	for configurationKey, configurationValue := range forks.DefaultConfigurationValues() {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration
	application.applyFlagOverrides(command)

	executionIdentifier := uuid.NewString()
	logger, loggerCreationError := application.loggerFactory.CreateLogger(utils.LoggerOptions{
		Level:  utils.LogLevel(strings.ToLower(strings.TrimSpace(application.configuration.Common.LogLevel))),
		Format: utils.LogFormat(strings.ToLower(strings.TrimSpace(application.configuration.Common.LogFormat))),
		Output: application.diagnosticOutput,
	})
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(configurationExecutionIdentifierFieldConstant, executionIdentifier),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		updatedContext = application.commandContextAccessor.WithExecutionIdentifier(updatedContext, executionIdentifier)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) applyFlagOverrides(command *cobra.Command) {
	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if application.persistentFlagChanged(command, basePathFlagNameConstant) {
		application.configuration.Forks.Storage.BasePath = application.basePathFlagValue
	}
	if application.persistentFlagChanged(command, outputFlagNameConstant) {
		application.configuration.Forks.Output.Format = application.outputFlagValue
	}
	if application.persistentFlagChanged(command, colorFlagNameConstant) {
		application.configuration.Forks.Output.Color = application.colorFlagValue
	}
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Strings(logFieldArgumentsConstant, arguments),
	)
	return command.Help()
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
