// Package cli provides the interactive Sophia companion command-line client.
//
// It wires configuration, the encrypted session store, the device-state
// database, the REST gateway, and an interactive REPL around the cold-start
// reconciler. Typical flow: reconcile on launch, print the screen the app
// would open, and execute user commands.
//
// Key features:
//   - Bootstrap / Status (cold-start reconciliation and identity)
//   - Login / Register (guest-to-full conversion) / Logout
//   - Children / Use (onboarding completion against the ownership list)
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, runREPL, and the command methods for details.
package cli
