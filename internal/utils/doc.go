// Package utils exposes reusable helpers consumed by the forker commands.
//
// It houses ConfigurationLoader, which layers embedded defaults, configuration
// files and FORKER_ environment variables through Viper, LoggerFactory, which
// builds zap loggers for the structured and console formats, and the
// CommandContextAccessor used to pass invocation metadata through Cobra
// contexts.
package utils
