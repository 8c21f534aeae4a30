// Package config loads and validates the rapidphoto configuration file.
//
// Configuration lives in a TOML file (default ~/.config/rapidphoto/config.toml,
// or rapidphoto.toml in the working directory). Load applies repository
// defaults first, overlays the file when present, expands ~ in path fields,
// and validates the result. A commented sample config is embedded for
// `rapid config init`.
package config
