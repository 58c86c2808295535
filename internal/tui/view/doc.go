// Package view renders the TUI screens.
//
// Every function here is pure: it takes a small state struct and returns a
// string, so rendering can be tested without a running program.
package view
