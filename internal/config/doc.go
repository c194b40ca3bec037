// Package config provides configuration loading, merging, and validation
// facilities for the server.
//
// Configuration is assembled from multiple sources in the following priority
// order (earlier sources win for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON or YAML config file
//  4. Built-in defaults
//
// The main entry point is [GetStructuredConfig].
package config
