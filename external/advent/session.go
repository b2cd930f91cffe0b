package advent

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/riskibarqy/advent-board/internal/usecase"
)

const minSessionTokenLen = 16

// ResolveSession picks the session cookie value for the client. An
// explicit token wins, otherwise the token is read from file. The file
// variant keeps the cookie out of shell history and process listings.
func ResolveSession(token, file string) (string, error) {
	token = strings.TrimSpace(token)
	if token != "" {
		return token, validateSessionToken(token)
	}

	if strings.TrimSpace(file) == "" {
		return "", fmt.Errorf("%w: no session token configured, set AOC_SESSION or point AOC_SESSION_FILE at a file holding the cookie value", usecase.ErrInvalidInput)
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: no session token configured, set AOC_SESSION or write the session cookie value to %s", usecase.ErrInvalidInput, file)
		}
		return "", fmt.Errorf("read session file %s: %w", file, err)
	}

	token = strings.TrimSpace(string(raw))
	if token == "" {
		return "", fmt.Errorf("%w: session file %s is empty", usecase.ErrInvalidInput, file)
	}

	return token, validateSessionToken(token)
}

func validateSessionToken(token string) error {
	if len(token) < minSessionTokenLen || strings.ContainsAny(token, " \t\r\n;") {
		return fmt.Errorf("%w: session token looks malformed, copy the session cookie value from a logged-in browser", usecase.ErrInvalidInput)
	}
	return nil
}
