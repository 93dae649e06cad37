package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const pepperLength = 32

var (
	pepperMu sync.RWMutex
	pepper   string
)

// SetPepper installs the server-side secret mixed into every password hash.
// An empty pepper disables peppering.
func SetPepper(p string) {
	pepperMu.Lock()
	defer pepperMu.Unlock()
	pepper = p
}

// GetPepper returns the active pepper (possibly empty).
func GetPepper() string {
	pepperMu.RLock()
	defer pepperMu.RUnlock()
	return pepper
}

// LoadPepper reads the pepper from path, generating and persisting a new one
// when the file does not exist yet. The loaded pepper is installed globally.
// An empty path disables peppering.
func LoadPepper(path string) (string, error) {
	if path == "" {
		SetPepper("")
		return "", nil
	}

	path = filepath.Clean(path)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		p := strings.TrimSpace(string(data))
		if p == "" {
			return "", fmt.Errorf("cryptox: pepper file %s is empty", path)
		}
		SetPepper(p)
		return p, nil
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("cryptox: read pepper: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("cryptox: create pepper dir: %w", err)
	}

	buf := make([]byte, pepperLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: generate pepper: %w", err)
	}
	p := base64.RawURLEncoding.EncodeToString(buf)

	if err := os.WriteFile(path, []byte(p), 0o600); err != nil {
		return "", fmt.Errorf("cryptox: write pepper: %w", err)
	}

	SetPepper(p)
	return p, nil
}
