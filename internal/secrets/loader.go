// Package secrets resolves credentials that must not appear on the
// command line or in shell history.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Password reads an account password from the given file. The content is
// trimmed, so trailing newlines left by editors and shell redirects are
// harmless. An empty or unreadable file is an error; a blank password is
// never valid.
func Password(file string) (string, error) {
	file = strings.TrimSpace(file)
	if file == "" {
		return "", fmt.Errorf("password file is not configured")
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading password from file %q: %w", file, err)
	}

	password := strings.TrimSpace(string(data))
	if password == "" {
		return "", fmt.Errorf("password file %q is empty", file)
	}

	return password, nil
}
