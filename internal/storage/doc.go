// Package storage persists forker records as pretty-printed JSON files.
//
// Each tracked repository owns a subdirectory of <base>/.forker named after its
// sanitized repository name, holding fork_info.json, peers.json and prs.json.
// Store is the only entry point; the filesystem is reached through the
// FileSystem interface so failures can be simulated in tests.
package storage
