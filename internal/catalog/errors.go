package catalog

import (
	"fmt"
	"strings"
)

// UnknownModelError reports a model name with no row in an analysis table.
// Valid carries the table's model names so callers can present the choices.
type UnknownModelError struct {
	Analysis string
	Model    string
	Valid    []string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model %q for analysis %q, choose one of: %s",
		e.Model, e.Analysis, strings.Join(e.Valid, ", "))
}

// UnknownAnalysisError reports an analysis ID the catalog does not define.
type UnknownAnalysisError struct {
	Analysis string
	Valid    []string
}

func (e *UnknownAnalysisError) Error() string {
	return fmt.Sprintf("unknown analysis %q, choose one of: %s",
		e.Analysis, strings.Join(e.Valid, ", "))
}
