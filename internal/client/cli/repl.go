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
	isIdentified() bool
	Bootstrap(ctx context.Context) error
	Status(ctx context.Context) error
	Login(ctx context.Context) error
	Register(ctx context.Context) error
	Guest(ctx context.Context) error
	Logout(ctx context.Context) error
	Children(ctx context.Context) error
	Use(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the Sophia client.
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
//	Not identified:
//	  - help           show available commands
//	  - bootstrap      reconcile and print the starting screen
//	  - guest          make sure a session exists
//	  - login          authenticate with an existing account
//	  - exit | quit    leave the program
//
//	Identified (guest or full):
//	  - help           show available commands
//	  - status         print identity and the active child
//	  - bootstrap      re-run the cold-start reconciliation
//	  - register       upgrade the guest session into a full account
//	  - children       list children owned by the account
//	  - use            record a child as the onboarding result
//	  - logout         drop the session and local state
//	  - exit | quit    leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("sophia %s> ", statusFn()))
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
			if a.isIdentified() {
				printlnFn("Available commands: status, bootstrap, register, children, use, logout, exit")
			} else {
				printlnFn("Available commands: bootstrap, guest, login, exit")
			}

		case "bootstrap":
			_ = a.Bootstrap(ctx)

		case "status":
			_ = a.Status(ctx)

		case "guest":
			_ = a.Guest(ctx)

		case "login":
			_ = a.Login(ctx)

		case "register":
			_ = a.Register(ctx)

		case "children", "ls":
			_ = a.Children(ctx)

		case "use":
			_ = a.Use(ctx)

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
