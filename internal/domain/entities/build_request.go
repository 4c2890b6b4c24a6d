package entities

import (
	"fmt"
	"strings"
)

// BuildRequest represents a single caller-supplied build invocation
type BuildRequest struct {
	Destination string // Path the compiled binary is copied to
	Revision    string // Tag, branch or commit the checkout is reset to
	Target      string // Architecture label (x86, x64, armv6, armv7, arm64)
}

// Validate checks that every field of the request is present
func (r BuildRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Destination) == "" {
		missing = append(missing, "destination")
	}
	if strings.TrimSpace(r.Revision) == "" {
		missing = append(missing, "revision")
	}
	if strings.TrimSpace(r.Target) == "" {
		missing = append(missing, "target")
	}
	if len(missing) > 0 {
		return NewInvalidRequestError("validate", fmt.Errorf("missing %s", strings.Join(missing, ", ")))
	}
	return nil
}
