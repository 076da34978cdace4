// Package cli turns the railmap command line into an app.Config.
//
// It owns the flag set, the usage text and the mapping of bad input onto
// process exit codes through ExitError. It never opens the database or
// reads configuration files; that happens in package app.
package cli
