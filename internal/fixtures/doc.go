// Package fixtures provides service.FixtureStore implementations for demo
// mode.
//
// DirStore indexes a directory once with fastwalk and answers lookups from
// memory. FSStore searches an fs.FS (usually an embed.FS) with doublestar
// globs. Both accept a bare file name, match it anywhere in the tree, and
// fall back to a gzip or zstd compressed sibling ("name.gz", "name.zst")
// that is decompressed on read.
//
// Example Usage:
//
//	store, err := fixtures.NewDirStore("testdata/fixtures")
//	manager := service.NewManager(client, service.WithFixtures(store))
package fixtures
