package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/karim1349/app-psy-sophia-sub000/internal/client/bootstrap"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/identity"
	"github.com/karim1349/app-psy-sophia-sub000/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Bootstrap runs the cold-start reconciliation and prints the screen
// the app would open. The prompt keeps showing the route until the
// next reconciliation changes it.
func (a *App) Bootstrap(ctx context.Context) error {
	route, err := a.reconciler.Run(ctx)
	if err != nil {
		log.Printf("Bootstrap aborted: %s", err.Error())
		return err
	}
	a.route = route

	if status, err := a.authService.Identity(ctx); err == nil {
		a.status = status
	}

	fmt.Println("Route:", route)
	return nil
}

// Status resolves and prints the current identity and, when onboarding
// is complete, the active child.
func (a *App) Status(ctx context.Context) error {
	status, err := a.authService.Identity(ctx)
	if err != nil {
		log.Printf("Status unavailable: %s", err.Error())
		return err
	}
	a.status = status
	fmt.Println("Identity:", status)

	child, err := a.childService.Current(ctx)
	if err != nil {
		fmt.Println("Child: unavailable, re-run bootstrap")
		return nil
	}
	if child == nil {
		fmt.Println("Child: onboarding not finished")
		return nil
	}
	fmt.Printf("Child: %s (id %d, age %d)\n", child.FirstName, child.ID, child.Age)
	return nil
}

// Guest makes sure a session exists, minting an anonymous one when the
// device has none. Existing sessions are kept as they are.
func (a *App) Guest(ctx context.Context) error {
	if err := a.authService.EnsureSession(ctx); err != nil {
		log.Printf("Guest session failed: %s", err.Error())
		return err
	}
	if status, err := a.authService.Identity(ctx); err == nil {
		a.status = status
	}
	fmt.Println("Session ready")
	return nil
}

// Login prompts for credentials and authenticates. On success the
// stored session, whatever it was, is replaced by the full-account one.
//
// The password byte slice is securely wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	profile, err := a.authService.Login(ctx, email, string(password))
	if err != nil {
		log.Printf("Login failed: %s", err.Error())
		return err
	}

	a.status = identity.StatusFull
	a.route = bootstrap.RouteDashboard
	if profile != nil {
		log.Printf("Logged in as %s", profile.Email)
	}
	fmt.Println("Success!")
	return nil
}

// Register upgrades the current guest session into a full account.
// Everything recorded under the guest identity stays with the account.
//
// The password byte slice is securely wiped before returning.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.authService.Convert(ctx, email, username, string(password)); err != nil {
		log.Printf("Registration failed: %s", err.Error())
		return err
	}

	a.status = identity.StatusFull
	fmt.Println("Success!")
	return nil
}

// Logout drops the stored session and local device state and moves the
// prompt back to the login route.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		log.Printf("Logout failed: %s", err.Error())
		return err
	}
	a.status = identity.StatusUnknown
	a.route = bootstrap.RouteLogin
	fmt.Println("Logged out")
	return nil
}
