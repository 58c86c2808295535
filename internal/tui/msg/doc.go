// Package msg defines the Bubbletea message types exchanged between the TUI
// model and its asynchronous commands, and the command factories that
// produce them.
//
// Every request to the backend runs inside a tea.Cmd so the event loop never
// blocks; the result comes back as one of the message types below.
package msg
