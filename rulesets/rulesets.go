// Package rulesets embeds the capability rule tables shipped with the
// binary. Each YAML file is a versioned list of (symbol pattern →
// capability tags) entries; adding coverage for a new ecosystem means
// dropping in a new *.yaml file and loading it by name through
// internal/rules.
package rulesets

import "embed"

// FS is an embed.FS containing every *.yaml file in this directory.
//
//go:embed *.yaml
var FS embed.FS
