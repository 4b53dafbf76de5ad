package cli

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/clinivault/screenauth/internal/client/api"
)

// SubmitResult records the outcome of the completed screening session. The
// server links the result to the redeemed access code and consumes the grant,
// so this can happen at most once per session.
func (a *App) SubmitResult(ctx context.Context) error {
	testType, err := getSimpleText(a.reader, "Enter test type (e.g. PHQ-9)", os.Stdout)
	if err != nil {
		return err
	}
	scoreText, err := getSimpleText(a.reader, "Enter score", os.Stdout)
	if err != nil {
		return err
	}
	score, err := strconv.Atoi(strings.TrimSpace(scoreText))
	if err != nil {
		printlnFn("Score must be a number")
		return err
	}
	severity, err := getSimpleText(a.reader, "Enter severity (minimal/mild/moderate/severe)", os.Stdout)
	if err != nil {
		return err
	}
	analysis, err := GetMultiline(a.reader, "Enter analysis", os.Stdout)
	if err != nil {
		return err
	}
	recsText, err := getSimpleText(a.reader, "Enter recommendations (separated by ';')", os.Stdout)
	if err != nil {
		return err
	}

	var recommendations []string
	for _, rec := range strings.Split(recsText, ";") {
		if rec = strings.TrimSpace(rec); rec != "" {
			recommendations = append(recommendations, rec)
		}
	}

	r, err := a.api.RecordResult(ctx, a.token, api.RecordResultInput{
		TestType:        testType,
		Score:           score,
		Severity:        severity,
		Analysis:        analysis,
		Recommendations: recommendations,
	})
	if err != nil {
		log.Printf("Could not record result: %s", err.Error())
		return err
	}

	printlnFn("Result recorded under code " + r.AccessCode)
	return nil
}
