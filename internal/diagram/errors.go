package diagram

import "fmt"

// ServiceUnavailableError means the rendering service failed its availability
// check. It is fatal for the whole visual batch: per-item retries cannot fix
// an unreachable dependency, so the check runs once before any refinement
// loop is committed.
type ServiceUnavailableError struct {
	Endpoint string
	Cause    error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("rendering service unavailable at %s: %v", e.Endpoint, e.Cause)
}

func (e *ServiceUnavailableError) Unwrap() error {
	return e.Cause
}

// RenderError is a per-diagram render rejection (bad source, unsupported
// construct). Unlike ServiceUnavailableError it is revisable: the refinement
// loop feeds it back as guidance.
type RenderError struct {
	Tool   string
	Status int
	Detail string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("renderer rejected %s source (status %d): %s", e.Tool, e.Status, e.Detail)
}
