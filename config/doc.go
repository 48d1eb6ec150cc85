// Package config reads per-project defaults for cargo heaptrack.
//
// Settings live in a YAML [File] named .cargo-heaptrack.yaml in the crate
// root (see [Discover]), or at an explicit path passed to [Load]. Values only
// fill in options that were not given on the command line; see
// [File.ApplyCargo] and [File.ApplyHeaptrack]. [Schema] describes the file
// format as JSON Schema for editor integration.
package config
