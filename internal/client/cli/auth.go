package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tanvir-rifat007/maker-cli/internal/client/api"
	"github.com/tanvir-rifat007/maker-cli/internal/client/session"
	"github.com/tanvir-rifat007/maker-cli/internal/common"
	"github.com/tanvir-rifat007/maker-cli/internal/validator"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a name, email and password, runs the client-side
// field checks, and creates the account. Validation failures are printed
// per field; nothing is sent while any check fails.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	v := validator.New()
	v.Check(name != "", "name", "Name is required")
	v.Check(validator.Matches(email, validator.EmailRX), "email", "Must be a valid email address")
	v.Check(len(password) >= 8, "password", "Password must be at least 8 characters")
	if !v.Valid() {
		printFieldErrors(v.Errors)
		return v.Err()
	}

	if _, err := a.store.Register(ctx, name, email, string(password)); err != nil {
		var fields api.FieldErrors
		if errors.As(err, &fields) {
			printFieldErrors(fields)
		} else {
			fmt.Printf("Registration failed: %s\n", err.Error())
		}
		return err
	}

	fmt.Println("Success! Check your email to activate the account, then sign in.")
	return nil
}

// Login prompts for credentials and authenticates against the server.
//
// A valid credential on an unactivated account is reported as such rather
// than as a wrong password. On success the session history is fetched for
// the signed-in user.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	v := validator.New()
	v.Check(validator.Matches(email, validator.EmailRX), "email", "Must be a valid email address")
	v.Check(len(password) >= 6, "password", "Password must be at least 6 characters")
	if !v.Valid() {
		printFieldErrors(v.Errors)
		return v.Err()
	}

	user, err := a.store.Login(ctx, email, string(password))
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotActivated):
			fmt.Println("Your account is not activated yet. Check your email for the activation link.")
		case errors.Is(err, api.ErrUnauthorized):
			fmt.Println("Invalid email or password.")
		case errors.Is(err, api.ErrUnavailable):
			fmt.Println("Server unavailable, try again later.")
		default:
			fmt.Printf("Login failed: %s\n", err.Error())
		}
		return err
	}

	fmt.Printf("Welcome, %s!\n", user.Name)
	a.hist.Fetch(ctx, user.ID)
	return nil
}

// Logout signs out. The local session is cleared even when the server
// cannot be reached, so logging out never fails visibly.
func (a *App) Logout(ctx context.Context) error {
	a.store.Logout(ctx)
	fmt.Println("Signed out.")
	return nil
}

func printFieldErrors(fields map[string]string) {
	for field, msg := range fields {
		fmt.Printf("  %s: %s\n", field, msg)
	}
}
