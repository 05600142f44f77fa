// Package cli provides the interactive VoiceLedger command-line client.
//
// It wires configuration, the local SQLite store, the HTTP transport, the
// application services and the background sync scheduler into an interactive
// REPL. Expenses are usable immediately and synchronize in the background;
// the REPL never blocks on the network except for explicit commands like
// "sync" or "voice".
//
// Key features:
//   - Register / Login / Logout
//   - Add, list, show, edit and delete expenses
//   - Capture an expense from a voice clip
//   - Manual and automatic synchronization
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
