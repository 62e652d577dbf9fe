// Package shell edits the user's shell startup files.
//
// # Aliases
//
// The launcher is exposed through a single alias definition. UpsertAlias is
// keyed by the alias name: it rewrites an existing definition in place,
// collapses duplicates left behind by earlier installers that blindly
// appended, and appends only when no definition exists. Running it twice
// produces the same file.
//
//	alias pimp='/home/user/PIMP/pimp.sh'
//
// Fish uses its own quoting and is written as
//
//	alias pimp '/home/user/PIMP/pimp.sh'
//
// # Sourcing
//
// On Debian-family systems ~/.bashrc sources ~/.bash_aliases, elsewhere it
// often does not. EnsureSourced adds a guarded source line to the rc file
// when the rc file does not already mention the alias file.
//
// # Reloading
//
// A child process cannot change its parent's shell session. ReloadCommand
// builds a command that loads the rc and alias files in a fresh
// non-interactive shell and checks the alias is defined; the user still
// has to source the rc file in open terminals.
package shell
