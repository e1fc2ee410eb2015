package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/karim1349/app-psy-sophia-sub000/internal/client/bootstrap"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/services"
)

// Children lists the children the current account owns on the server.
func (a *App) Children(ctx context.Context) error {
	children, err := a.childService.List(ctx)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	if len(children) == 0 {
		fmt.Println("No children yet: finish onboarding first")
		return nil
	}
	for _, child := range children {
		fmt.Printf("%d\t%s (age %d)\n", child.ID, child.FirstName, child.Age)
	}
	return nil
}

// Use records the given child as the onboarding result. The id is
// verified against the server's ownership list before anything is
// written locally.
func (a *App) Use(ctx context.Context) error {
	idText, err := getSimpleText(a.reader, "Enter child id", os.Stdout)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		fmt.Println("Child id must be a number")
		return err
	}

	if err := a.childService.CompleteOnboarding(ctx, id); err != nil {
		if errors.Is(err, services.ErrChildNotOwned) {
			fmt.Println("That child does not belong to this account")
		} else {
			log.Println(err.Error())
		}
		return err
	}

	a.route = bootstrap.RouteDashboard
	fmt.Println("Success!")
	return nil
}
