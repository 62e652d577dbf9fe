// Package filesystem provides the filesystem used by the installer.
//
// FS wraps an afero.Fs. NewOS backs it with the real filesystem and checks
// writability with access(2); NewMemory backs it with afero's in-memory
// filesystem for tests. CopyTree implements the application tree copy.
package filesystem
