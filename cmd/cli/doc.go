// Package cli constructs the forker command-line interface, wiring the Cobra
// command hierarchy, the Viper-backed configuration loader and zap logging
// around the fork tracking commands. Run executes the interface against
// explicit arguments and streams and converts failures into an exit status.
package cli
