package utils

import (
	"regexp"

	"github.com/google/uuid"
)

// IsValidAccountID checks that an id from the URL is a well-formed account id
func IsValidAccountID(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// IsValidHandle enforces the handle format: 3-50 chars of lowercase
// letters, digits and underscores
func IsValidHandle(handle string) bool {
	if len(handle) < 3 || len(handle) > 50 {
		return false
	}
	handleRegex := regexp.MustCompile(`^[a-z0-9_]+$`)
	return handleRegex.MatchString(handle)
}
