package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/clinivault/screenauth/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register walks the full clinician registration flow: it collects the form
// fields, starts the server-side verification flow and then loops on code
// entry until the account is verified, the user cancels, or the flow dies.
//
// Inside the loop the user may type "resend" to request a fresh code (the
// server enforces the cooldown and reports the seconds remaining) or
// "cancel" to abandon the registration. Wrong and expired codes are reported
// and the loop continues.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter full name", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	specialty, err := getSimpleText(a.reader, "Enter specialty (optional)", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	status, err := a.api.Register(ctx, name, email, specialty, password)
	if err != nil {
		var verrs common.ValidationErrors
		if errors.As(err, &verrs) {
			for field, msg := range verrs {
				printlnFn(fmt.Sprintf("  %s: %s", field, msg))
			}
			return err
		}
		log.Printf("Registration unsuccessful: %s", err.Error())
		return err
	}

	printlnFn("A verification code was sent to " + email)

	for {
		code, err := getSimpleText(a.reader, "Enter the 6-digit code ('resend' for a new one, 'cancel' to abort)", os.Stdout)
		if err != nil {
			return err
		}

		switch code {
		case "cancel":
			if err := a.api.Abandon(ctx, status.FlowID); err != nil {
				log.Printf("Could not abandon registration: %s", err.Error())
			}
			printlnFn("Registration abandoned")
			return nil
		case "resend":
			status, err = a.api.Resend(ctx, status.FlowID)
			if err != nil {
				log.Printf("Resend unsuccessful: %s", err.Error())
				continue
			}
			printlnFn(fmt.Sprintf("Next resend possible in %d seconds", status.CooldownSeconds))
			continue
		}

		err = a.api.Verify(ctx, status.FlowID, code)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrorCodeExpired):
				printlnFn("The code expired, type 'resend' to request a new one")
			case errors.Is(err, common.ErrorCodeMismatch), errors.Is(err, common.ErrorCodeFormat):
				printlnFn(err.Error())
			default:
				log.Printf("Verification unsuccessful: %s", err.Error())
				return err
			}
			continue
		}

		printlnFn("Account verified, you can log in now")
		return nil
	}
}

// Login prompts for clinician credentials and authenticates against the
// server. On success the session token is kept in memory for the duration
// of the program. The password is securely wiped before returning.
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

	sess, err := a.api.Login(ctx, email, password)
	if err != nil {
		log.Printf("Login unsuccessful: %s", err.Error())
		return err
	}

	a.token = sess.Token
	a.role = sess.Role
	a.userName = sess.Name
	a.setMode(ModeOnline)
	log.Printf("Login successful")
	return nil
}

// Forgot requests password recovery for an account. The server only confirms
// dispatch; no secret is ever sent back.
func (a *App) Forgot(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.api.ForgotPassword(ctx, email); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			printlnFn("No account with that email")
			return nil
		}
		return err
	}

	printlnFn("Recovery instructions dispatched, check your inbox")
	return nil
}

// Logout discards the in-memory session.
func (a *App) Logout(ctx context.Context) error {
	a.token = ""
	a.role = ""
	a.userName = ""
	return nil
}
