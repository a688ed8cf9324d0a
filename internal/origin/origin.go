// Package origin describes where a cache entry came from: which build
// produced it, on which host, and how long the producing work took. The
// packer treats this as opaque bytes; this package supplies the standard
// JSON encoding of it.
package origin

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/google/uuid"
)

// Metadata identifies the producing build of a cache entry.
type Metadata struct {
	// BuildInvocationID is a UUID minted per build invocation.
	BuildInvocationID string `json:"build_invocation_id"`
	// IdentityPath names the unit of work that produced the outputs.
	IdentityPath string `json:"identity_path"`
	// CreatedAt is when the entry was packed.
	CreatedAt time.Time `json:"created_at"`
	// ExecutionTime is how long the producing work ran.
	ExecutionTime time.Duration `json:"execution_time"`
	// HostOS records the producing operating system.
	HostOS string `json:"host_os"`
}

// New stamps metadata for the given unit of work.
func New(identityPath string, executionTime time.Duration) Metadata {
	return Metadata{
		BuildInvocationID: uuid.NewString(),
		IdentityPath:      identityPath,
		CreatedAt:         time.Now().UTC(),
		ExecutionTime:     executionTime,
		HostOS:            runtime.GOOS,
	}
}

// Write serializes the metadata to w.
func (m Metadata) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("write origin metadata: %w", err)
	}
	return nil
}

// Read deserializes metadata from r.
func Read(r io.Reader) (Metadata, error) {
	var m Metadata
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return Metadata{}, fmt.Errorf("read origin metadata: %w", err)
	}
	if m.BuildInvocationID == "" {
		return Metadata{}, fmt.Errorf("origin metadata has no build invocation id")
	}
	if _, err := uuid.Parse(m.BuildInvocationID); err != nil {
		return Metadata{}, fmt.Errorf("origin metadata has malformed build invocation id: %w", err)
	}
	return m, nil
}
