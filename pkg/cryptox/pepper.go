package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// PepperSize is the number of random bytes in a freshly generated pepper.
const PepperSize = 32

// LoadOrCreatePepper reads the pepper stored at path, generating and
// persisting a new one (mode 0600) if the file does not exist yet.
// An empty path means "no pepper" and returns "".
func LoadOrCreatePepper(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	path = filepath.Clean(path)

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		pepper := strings.TrimSpace(string(b))
		if pepper == "" {
			return "", fmt.Errorf("cryptox: pepper file %s is empty", path)
		}
		return pepper, nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("cryptox: read pepper: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("cryptox: create pepper dir: %w", err)
	}

	raw := make([]byte, PepperSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("cryptox: generate pepper: %w", err)
	}
	pepper := base64.RawURLEncoding.EncodeToString(raw)

	if err := os.WriteFile(path, []byte(pepper), 0600); err != nil {
		return "", fmt.Errorf("cryptox: write pepper: %w", err)
	}
	return pepper, nil
}
