// Package cli provides the interactive Maker command-line client.
//
// It wires configuration, the HTTP API client, the websocket generation
// client, the local history cache, and an interactive REPL. Typical flow:
// settle the session check, then execute user commands.
//
// Key features:
//   - Register / Login / Logout (cookie-based session)
//   - Generate a project from a prompt, streaming progress as it runs
//   - Browse, select, rename and remove past generation sessions
//   - Download the produced artifact
//   - Password recovery (request a reset token, consume it)
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// Protected commands consult the session gate first; while the initial
// session check is pending they neither run nor redirect.
package cli
