package origin

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNew(t *testing.T) {
	m := New("/workspace/build", 2*time.Second)
	if _, err := uuid.Parse(m.BuildInvocationID); err != nil {
		t.Errorf("build invocation id %q is not a uuid: %v", m.BuildInvocationID, err)
	}
	if m.IdentityPath != "/workspace/build" {
		t.Errorf("identity path = %q", m.IdentityPath)
	}
	if m.ExecutionTime != 2*time.Second {
		t.Errorf("execution time = %v", m.ExecutionTime)
	}
	if m.HostOS == "" {
		t.Error("host os is empty")
	}
	if m.CreatedAt.IsZero() {
		t.Error("created at is zero")
	}

	other := New("/workspace/build", 2*time.Second)
	if other.BuildInvocationID == m.BuildInvocationID {
		t.Error("two invocations share a build invocation id")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	m := New("/workspace/build", 1500*time.Millisecond)

	var buf bytes.Buffer
	if err := m.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.BuildInvocationID != m.BuildInvocationID {
		t.Errorf("build invocation id = %q, want %q", got.BuildInvocationID, m.BuildInvocationID)
	}
	if got.IdentityPath != m.IdentityPath {
		t.Errorf("identity path = %q, want %q", got.IdentityPath, m.IdentityPath)
	}
	if got.ExecutionTime != m.ExecutionTime {
		t.Errorf("execution time = %v, want %v", got.ExecutionTime, m.ExecutionTime)
	}
	if !got.CreatedAt.Equal(m.CreatedAt) {
		t.Errorf("created at = %v, want %v", got.CreatedAt, m.CreatedAt)
	}
}

func TestReadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"garbage", "not json at all"},
		{"no invocation id", `{"identity_path":"/w"}`},
		{"malformed invocation id", `{"build_invocation_id":"not-a-uuid"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(tt.input)); err == nil {
				t.Errorf("Read(%q) succeeded, want error", tt.input)
			}
		})
	}
}
