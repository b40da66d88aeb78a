// Package confloader loads layered configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Defaults (a flat map keyed by dotted paths)
//  2. A YAML configuration file
//  3. Environment variables: BRANCHWEB_ prefix, "__" between sections,
//     so BRANCHWEB_WEB__KEY_TIMEOUT sets web.key_timeout
//
// Watcher notifies callbacks when a watched file is written, which the
// server uses for hot reload.
package confloader
