package critic

import (
	"fmt"

	"github.com/daniela/lesson-forge/internal/types"
)

// ContractError reports a critic response that violated its contract twice in
// a row (unparseable, missing a dimension, or demanding revision with no
// guidance). It is raised at the critic-invocation boundary so malformed
// critiques never propagate into the generation loop.
type ContractError struct {
	Kind  types.ItemKind
	Cause error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("critic contract violated for kind %s: %v", e.Kind, e.Cause)
}

func (e *ContractError) Unwrap() error {
	return e.Cause
}
