// Package config loads backoffice settings.
//
// # Resolution
//
// Load reads a TOML file and then applies environment overrides:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/backoffice/config.toml
//  3. A missing file is not an error; every field then comes from the
//     environment or the defaults
//  4. BACKOFFICE_* variables win over file values
//
// The API base URL has no default. When neither the file nor
// BACKOFFICE_API_URL provides one, Load returns ErrMissingBaseURL and the
// program must not start.
//
// # Keys
//
//	api_url                 = "https://api.example.com"   # BACKOFFICE_API_URL
//	log_path                = "~/.local/state/backoffice/backoffice.log"
//	log_level               = "info"                      # debug, info, warn, error
//	poll_seconds            = 30
//	request_timeout_seconds = 10
//
// String values are trimmed, empty strings and non-positive numbers fall back
// to defaults, and a leading ~ in log_path expands to the home directory.
package config
