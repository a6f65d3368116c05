package ui

import (
	"fmt"

	"github.com/charmbracelet/huh/spinner"
)

// RunWithSpinner executes an action while displaying a spinner.
//
// Example:
//
//	var rows models.CDXRows
//	err := RunWithSpinner("Fetching...", func() {
//	    rows = client.FetchTweets(ctx, params)
//	})
func RunWithSpinner(title string, action func()) error {
	err := spinner.New().
		Title(title).
		Action(action).
		Run()
	if err != nil {
		return fmt.Errorf("spinner error: %w", err)
	}
	return nil
}
