// Package config defines the runtime configuration for pagefold.
//
// Configuration comes from three layers, lowest precedence first:
//  1. Compiled-in defaults (NewConfig)
//  2. The optional .pagefold YAML file (loader.go)
//  3. CLI flags, applied by the cmd package
//
// Design decision: We keep the configuration as one flat struct populated
// before any phase runs and passed by dependency injection, never as global
// state. Validation happens once, up front, so the pipeline can assume a
// well-formed configuration throughout.
package config
