package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/tanvir-rifat007/maker-cli/internal/client/session"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	decide() session.Decision
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Generate(ctx context.Context) error
	History(ctx context.Context) error
	Select(ctx context.Context, id string) error
	Rename(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
	Download(ctx context.Context) error
	ForgotPassword(ctx context.Context) error
	ResetPassword(ctx context.Context) error
}

// gateAllows checks the session gate before a protected command runs.
// While the initial credential check is pending the command neither runs
// nor redirects; once settled an unauthenticated user is sent to sign in.
func gateAllows(a execIface) bool {
	switch a.decide() {
	case session.DecisionPending:
		printlnFn("Checking your session, try again in a moment...")
		return false
	case session.DecisionSignIn:
		printlnFn("Please sign in first (type 'login').")
		return false
	}
	return true
}

// runREPL starts a simple read–eval–print loop for the Maker CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not signed in:
//	  - help           — show available commands
//	  - register       — create an account
//	  - login          — authenticate
//	  - forgot         — request a password reset token by email
//	  - reset          — consume a reset token and set a new password
//	  - exit | quit    — leave the program
//
//	Signed in:
//	  - help               — show available commands
//	  - (g)enerate         — start a generation job and stream its progress
//	  - (h)istory          — list past generation sessions
//	  - select <id>    — load a session's parameters into the form
//	  - rename <id>    — retitle a session (new title is prompted)
//	  - remove <id>    — delete a session
//	  - download       — download the last produced artifact
//	  - logout         — sign out
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("maker %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (g)enerate, (h)istory, select, rename, remove, download, logout, exit")
			} else {
				printlnFn("Available commands: register, login, forgot, reset, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "g", "generate":
			if gateAllows(a) {
				_ = a.Generate(ctx)
			}

		case "h", "history":
			if gateAllows(a) {
				_ = a.History(ctx)
			}

		case "select":
			if len(args) == 0 {
				printlnFn("Usage: select <id>")
				continue
			}
			if gateAllows(a) {
				_ = a.Select(ctx, args[0])
			}

		case "rename":
			if len(args) == 0 {
				printlnFn("Usage: rename <id>")
				continue
			}
			if gateAllows(a) {
				_ = a.Rename(ctx, args[0])
			}

		case "remove":
			if len(args) == 0 {
				printlnFn("Usage: remove <id>")
				continue
			}
			if gateAllows(a) {
				_ = a.Remove(ctx, args[0])
			}

		case "download":
			if gateAllows(a) {
				_ = a.Download(ctx)
			}

		case "forgot":
			_ = a.ForgotPassword(ctx)

		case "reset":
			_ = a.ResetPassword(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
