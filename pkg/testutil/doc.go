// Package testutil provides fakes and fixtures for installer tests.
//
// NewEnvironment builds an in-memory host: an afero memory filesystem with
// a seeded PIMP source tree, a home directory, the default configuration,
// resolved paths, a FakeRunner standing in for external commands and a
// FakeGroups standing in for the group database. Tests adjust the pieces
// they care about and hand the environment to the code under test.
package testutil
