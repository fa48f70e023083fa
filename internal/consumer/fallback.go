package consumer

import (
	"encoding/base64"
	"os"
	"path/filepath"
)

// A 1x1 gray PNG shown whenever the real image cannot be fetched.
const fallbackPNGBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

const fallbackName = ".fallback.png"

// fallbackPath materializes the fallback image into the cache dir on first
// use and returns its path.
func (c *Consumer) fallbackPath() (string, error) {
	path := filepath.Join(c.cacheDir, fallbackName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	data, err := base64.StdEncoding.DecodeString(fallbackPNGBase64)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
