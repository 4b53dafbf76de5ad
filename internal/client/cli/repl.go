package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	isClinician() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Forgot(ctx context.Context) error
	Redeem(ctx context.Context) error
	IssueGrant(ctx context.Context) error
	ListGrants(ctx context.Context) error
	ListResults(ctx context.Context) error
	SubmitResult(ctx context.Context) error
	UploadReport(ctx context.Context) error
	DownloadReport(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the screenauth CLI.
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
//	Not logged in:
//	  - help           — show available commands
//	  - register       — create a clinician account (email verification)
//	  - login          — authenticate as a clinician
//	  - forgot         — request password recovery
//	  - redeem         — enter a patient access code
//	  - exit | quit    — leave the program
//
//	Logged in as clinician:
//	  - grant          — issue a patient access code
//	  - grants         — list issued access codes
//	  - results        — list screening results
//	  - download       — get a link to an archived report
//	  - logout         — log out
//
//	Logged in as patient:
//	  - submit         — record the screening outcome
//	  - report         — upload the rendered report to the archive
//	  - logout         — log out
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("sa> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			switch {
			case a.isLoggedIn() && a.isClinician():
				printlnFn("Available commands: grant, grants, results, download, logout, exit")
			case a.isLoggedIn():
				printlnFn("Available commands: submit, report, logout, exit")
			default:
				printlnFn("Available commands: register, login, forgot, redeem, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "forgot":
			_ = a.Forgot(ctx)

		case "redeem":
			_ = a.Redeem(ctx)

		case "grant":
			_ = a.IssueGrant(ctx)

		case "grants":
			_ = a.ListGrants(ctx)

		case "results":
			_ = a.ListResults(ctx)

		case "submit":
			_ = a.SubmitResult(ctx)

		case "report":
			_ = a.UploadReport(ctx)

		case "download":
			_ = a.DownloadReport(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
