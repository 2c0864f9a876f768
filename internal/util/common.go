package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolvePath joins base and rel, but if rel is an absolute path it is returned
// directly (cleaned). filepath.Join("a", "/b") returns "a/b", which is not what
// a config value like "/var/lib/chuckide" means.
func ResolvePath(base, rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(base, rel)
}

var (
	ErrEmptyFilename   = errors.New("filename is empty")
	ErrInvalidFilename = errors.New("invalid filename")
)

// ValidateFilename trims a user supplied project filename and rejects names
// that cannot live flat in the project root.
func ValidateFilename(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyFilename
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q contains a slash", ErrInvalidFilename, name)
	}
	if name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return name, nil
}

// WriteJSONFile writes a JSON object to a file, creating parent directories if needed.
// The file is written to a sibling temp file first and renamed into place.
func WriteJSONFile(path string, v any) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// OpenURL opens a URL in the system's default browser
func OpenURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return errors.New("unsupported platform")
	}
	return cmd.Start()
}
