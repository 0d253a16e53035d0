// Package config loads the gateway settings from flags, environment
// variables and an optional config file, and validates them.
//
// Precedence, highest first: changed flags, CALGATE_* environment
// variables, the config file named by --config, then defaults. The API
// key is read from CALGATE_API_KEY or API_KEY only; it has no flag so it
// never shows up in process listings.
package config
