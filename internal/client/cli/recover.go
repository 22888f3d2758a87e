package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tanvir-rifat007/maker-cli/internal/client/recovery"
	"github.com/tanvir-rifat007/maker-cli/internal/common"
	"github.com/tanvir-rifat007/maker-cli/internal/validator"
)

// ForgotPassword asks for an email and requests a reset token for it.
// The flow stays in the "check your mail" phase until the user asks to try
// a different address.
func (a *App) ForgotPassword(ctx context.Context) error {
	if a.flow.Phase() == recovery.PhaseSent {
		answer, err := getSimpleText(a.reader,
			fmt.Sprintf("A reset link was already sent to %s. Try a different email? (y/n)", a.flow.SentTo()),
			os.Stdout)
		if err != nil {
			return err
		}
		if answer != "y" && answer != "yes" {
			fmt.Println("Check your mail for the reset link.")
			return nil
		}
		a.flow.TryDifferentEmail()
	}

	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.flow.RequestReset(ctx, email); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			printFieldErrors(verr.Fields)
		} else {
			fmt.Printf("Could not request a reset: %s\n", err.Error())
		}
		return err
	}

	fmt.Println("Check your mail! A reset link is on its way.")
	return nil
}

// ResetPassword consumes a reset token and sets a new password. The token
// is read here, at submit time; the password checks run before anything is
// sent, and a missing token never reaches the server.
func (a *App) ResetPassword(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Enter reset token (from the email link)", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout, "Enter new password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	confirm, err := getPassword(os.Stdout, "Confirm new password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if err := a.flow.ConsumeReset(ctx, token, string(password), string(confirm)); err != nil {
		var verr *validator.ValidationError
		switch {
		case errors.As(err, &verr):
			printFieldErrors(verr.Fields)
		case errors.Is(err, recovery.ErrMissingToken):
			fmt.Println("No reset token given. Follow the link from the email and paste its token.")
		default:
			fmt.Printf("Could not reset the password: %s\n", err.Error())
		}
		return err
	}

	fmt.Println("Password updated. You can sign in now.")
	return nil
}
