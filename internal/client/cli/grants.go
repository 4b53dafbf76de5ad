package cli

import (
	"context"
	"fmt"
	"log"
	"os"
)

// IssueGrant creates a new patient access code bound to the logged-in
// clinician and prints it for handing over to the patient.
func (a *App) IssueGrant(ctx context.Context) error {
	patientName, err := getSimpleText(a.reader, "Enter patient name", os.Stdout)
	if err != nil {
		return err
	}

	g, err := a.api.IssueGrant(ctx, a.token, patientName)
	if err != nil {
		log.Printf("Could not issue access code: %s", err.Error())
		return err
	}

	printlnFn(fmt.Sprintf("Access code for %s: %s (valid until %s)", g.PatientName, g.Code, g.ExpiresAt))
	return nil
}

// ListGrants prints the clinician's issued access codes, newest first.
func (a *App) ListGrants(ctx context.Context) error {
	grants, err := a.api.ListGrants(ctx, a.token)
	if err != nil {
		log.Printf("Could not list access codes: %s", err.Error())
		return err
	}

	if len(grants) == 0 {
		printlnFn("No access codes issued yet")
		return nil
	}

	for _, g := range grants {
		status := "active"
		if !g.Active {
			status = "used"
			if g.ResultCount == 0 {
				status = "redeemed"
			}
		}
		printlnFn(fmt.Sprintf("%s  %-20s %-8s results: %d", g.Code, g.PatientName, status, g.ResultCount))
	}
	return nil
}

// ListResults prints every recorded screening result, most recent first.
func (a *App) ListResults(ctx context.Context) error {
	results, err := a.api.ListResults(ctx, a.token)
	if err != nil {
		log.Printf("Could not list results: %s", err.Error())
		return err
	}

	if len(results) == 0 {
		printlnFn("No results recorded yet")
		return nil
	}

	for _, r := range results {
		printlnFn(fmt.Sprintf("%s  %-20s %-8s score: %d (%s)", r.CreatedAt, r.PatientName, r.TestType, r.Score, r.Severity))
	}
	return nil
}
