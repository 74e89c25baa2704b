// Package cli implements the haiku command line: generate, list, export and
// batch, with an optional YAML config file read through viper.
package cli
