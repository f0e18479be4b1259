// Package capture reads and writes capture batches: the exchanges, user
// actions, and navigations supplied by an external capture source. The
// analysis pipeline consumes these batches as immutable snapshots.
package capture

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PentesterFlow/apimapper/pkg/model"
)

// Capture is one finished capture batch.
type Capture struct {
	Exchanges   []model.Exchange   `json:"exchanges"`
	Actions     []model.UserAction `json:"actions,omitempty"`
	Navigations []model.Navigation `json:"navigations,omitempty"`
}

// Read decodes a JSON capture batch.
func Read(r io.Reader) (*Capture, error) {
	var c Capture
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode capture: %w", err)
	}
	return &c, nil
}

// Write encodes a capture batch as indented JSON.
func Write(w io.Writer, c *Capture) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode capture: %w", err)
	}
	return nil
}

// LoadFile reads a capture batch from disk. Files ending in .har are
// decoded as HAR 1.2 archives; anything else as the native format.
func LoadFile(path string) (*Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".har") {
		return ReadHAR(f)
	}
	return Read(f)
}

// SaveFile writes a capture batch to disk in the native format.
func SaveFile(path string, c *Capture) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create capture file: %w", err)
	}
	defer f.Close()
	return Write(f, c)
}
