package scene

import (
	"fmt"

	"go.uber.org/multierr"
)

// ValidationSeverity indicates whether a validation finding blocks display
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks display
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	ShapeID  uint32
	Index    int // position in the scene, -1 if scene-level
	Message  string
	Severity ValidationSeverity
	Err      error // construction error behind Message, nil for warnings
}

func (e ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] shape %d (#%d): %s", e.Severity, e.ShapeID, e.Index, e.Message)
}

// Unwrap lets errors.Is reach ErrConstruction and the kind error.
func (e ValidationError) Unwrap() error { return e.Err }

// Validate checks every shape and the scene as a whole. It never mutates the
// scene. An empty scene is valid.
func Validate(sc *Scene) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateShapes(sc)...)
	errs = append(errs, validateDuplicateIDs(sc)...)
	return errs
}

func validateShapes(sc *Scene) []ValidationError {
	var errs []ValidationError
	for i, s := range sc.Shapes() {
		if err := s.check(); err != nil {
			errs = append(errs, ValidationError{
				ShapeID:  s.ID,
				Index:    i,
				Message:  err.Error(),
				Severity: SeverityError,
				Err:      err,
			})
		}
	}
	return errs
}

// validateDuplicateIDs warns about identifiers used by more than one shape.
// Such shapes share one color, so their pixels are counted together.
func validateDuplicateIDs(sc *Scene) []ValidationError {
	var errs []ValidationError
	first := make(map[uint32]int)
	for i, s := range sc.Shapes() {
		prev, ok := first[s.ID]
		if !ok {
			first[s.ID] = i
			continue
		}
		errs = append(errs, ValidationError{
			ShapeID:  s.ID,
			Index:    i,
			Message:  fmt.Sprintf("identifier already used by shape #%d; their pixels will be merged", prev),
			Severity: SeverityWarning,
		})
	}
	return errs
}

// Err combines the blocking findings of Validate into one error, or returns
// nil when there are none.
func (sc *Scene) Err() error {
	var err error
	for _, v := range Validate(sc) {
		if v.Severity == SeverityError {
			err = multierr.Append(err, v)
		}
	}
	return err
}

// Warnings returns the non-blocking findings of Validate.
func (sc *Scene) Warnings() []ValidationError {
	var out []ValidationError
	for _, v := range Validate(sc) {
		if v.Severity == SeverityWarning {
			out = append(out, v)
		}
	}
	return out
}
