// Package config handles configuration loading and merging for dlpstream.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--bin, --format, --no-color, --debug, etc.)
//  2. Environment variables (DLPSTREAM_BIN, DLPSTREAM_FORMAT, DLPSTREAM_NO_COLOR, NO_COLOR, DLPSTREAM_DEBUG)
//  3. YAML config file (.dlpstream.yaml in the working directory or ~/.config/dlpstream/.dlpstream.yaml)
//  4. Hardcoded defaults
//
// # Environment Variables
//
//   - DLPSTREAM_BIN: downloader executable
//   - DLPSTREAM_FORMAT: output format (auto, json, text, tui)
//   - DLPSTREAM_NO_COLOR or NO_COLOR: "true" or "1" disables colors
//   - DLPSTREAM_DEBUG: "true" or "1" enables debug logging
package config
