// Package artifact handles the on-disk cache artifacts shared by the
// route snapshot and the module index: a JSON payload wrapped in a fixed
// textual envelope, written atomically so concurrent readers never
// observe a partial file.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Write wraps payload in the envelope and writes it atomically: the data
// goes to a temp file in the target directory which is then renamed over
// the destination.
func Write(path, header, footer string, payload []byte) error {
	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	b.Write(payload)
	b.WriteByte('\n')
	b.WriteString(footer)
	b.WriteByte('\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}

	if _, err := tmp.WriteString(b.String()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// Read validates the envelope and returns the payload. A missing file
// returns ok=false with a nil error. A present file with a broken
// envelope returns ok=false and is deleted; cache corruption is a cache
// miss, never a fatal error.
func Read(path, header, footer string) (payload []byte, ok bool, err error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cache file: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if !strings.HasPrefix(text, header) || !strings.HasSuffix(text, footer) {
		_ = os.Remove(path)
		return nil, false, nil
	}

	body := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(text, header), footer))
	return []byte(body), true, nil
}
