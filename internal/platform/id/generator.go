package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Generator creates identifiers for scrape runs so their log lines can be correlated.
type Generator interface {
	NewID() (string, error)
}

type RunIDGenerator struct {
	now func() time.Time
}

func NewRunIDGenerator() *RunIDGenerator {
	return &RunIDGenerator{now: time.Now}
}

// NewID returns "<yyyymmddThhmmss>-<8 hex chars>" in UTC.
func (g *RunIDGenerator) NewID() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return g.now().UTC().Format("20060102T150405") + "-" + hex.EncodeToString(buf), nil
}
