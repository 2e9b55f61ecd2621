package utils

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

var employeeIDReplacer = strings.NewReplacer(`"`, "", `\`, "")

// CleanUTF8 removes or replaces invalid UTF8 characters from a string
// Returns the cleaned string and a boolean indicating if cleaning was needed
func CleanUTF8(input string) (string, bool) {
	needsCleaning := strings.Contains(input, "\x00") || !utf8.ValidString(input)

	if !needsCleaning {
		return input, false
	}

	cleaned := strings.ToValidUTF8(input, "")
	cleaned = strings.ReplaceAll(cleaned, "\x00", "")

	return cleaned, true
}

// CleanEmployeeID strips quoting artifacts that upstream clients leave around
// employee ids, e.g. `"12345"` or `\"12345\"`.
func CleanEmployeeID(id string) string {
	return strings.TrimSpace(employeeIDReplacer.Replace(id))
}

// NormalizeNotes trims a free-text note and maps blank input to nil.
func NormalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}

	cleaned, _ := CleanUTF8(*notes)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil
	}

	return &cleaned
}

// RandomCode returns n upper-case hex characters taken from a fresh UUID.
func RandomCode(n int) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(raw) {
		n = len(raw)
	}
	return strings.ToUpper(raw[:n])
}
