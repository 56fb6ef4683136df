package scene

import "fmt"

// Reason classifies why an import failed.
type Reason string

// Import failure reasons.
const (
	ReasonMissingFile       Reason = "missing file"
	ReasonUnsupportedFormat Reason = "unsupported format"
	ReasonIncompleteScene   Reason = "incomplete scene"
)

// ImportError is returned by Load. No partial scene data accompanies it.
type ImportError struct {
	Path   string
	Reason Reason
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("import %s: %s", e.Path, e.Reason)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

func importErr(path string, reason Reason, err error) *ImportError {
	return &ImportError{Path: path, Reason: reason, Err: err}
}
