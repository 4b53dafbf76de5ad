package cli

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/clinivault/screenauth/internal/common"
)

// Redeem exchanges a patient access code for a screening session. The server
// rejects unknown, already-used and expired codes with a single
// indistinguishable error.
func (a *App) Redeem(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter your name", os.Stdout)
	if err != nil {
		return err
	}
	code, err := getSimpleText(a.reader, "Enter your access code (like PSY9-3N6R)", os.Stdout)
	if err != nil {
		return err
	}

	sess, err := a.api.Redeem(ctx, name, code)
	if err != nil {
		if errors.Is(err, common.ErrorInvalidOrExpiredCode) {
			printlnFn("That code is invalid or expired, ask your clinician for a new one")
			return nil
		}
		var verrs common.ValidationErrors
		if errors.As(err, &verrs) {
			printlnFn(verrs.Error())
			return nil
		}
		log.Printf("Redemption unsuccessful: %s", err.Error())
		return err
	}

	a.token = sess.Token
	a.role = sess.Role
	a.userName = sess.Name
	a.setMode(ModeOnline)
	printlnFn("Welcome, " + sess.Name + ". Your session is ready.")
	return nil
}
