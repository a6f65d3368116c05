package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/thesavant42/wayback-tweets/internal/models"
)

// sanitizeInput removes null bytes and other invisible control characters from input
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 || (r < 32 && r != '\t' && r != '\n' && r != '\r') {
			return -1
		}
		return r
	}, s)
}

// NormalizeUsername trims whitespace, control characters and a leading '@'
func NormalizeUsername(s string) string {
	s = strings.TrimSpace(sanitizeInput(s))
	return strings.TrimPrefix(s, "@")
}

// ValidateUsername rejects names the CDX URL pattern cannot carry
func ValidateUsername(s string) error {
	s = NormalizeUsername(s)
	if s == "" {
		return models.ErrEmptyUsername
	}
	if strings.ContainsAny(s, "/?#&* \t") {
		return fmt.Errorf("invalid username %q", s)
	}
	return nil
}

// PromptForUsername prompts the user to enter the account to search
func PromptForUsername() (string, error) {
	var input string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Enter Twitter/X Username").
				Description("The account whose archived tweets should be listed").
				Placeholder("jack").
				Value(&input).
				Validate(ValidateUsername),
		),
	).WithTheme(NewAppTheme())

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt cancelled: %w", err)
	}

	return NormalizeUsername(input), nil
}
