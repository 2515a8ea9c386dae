package container

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrUnknownDependency is matched by errors.Is when an id has no definition.
	ErrUnknownDependency = errors.New("container: unknown dependency")

	// ErrCyclicDependency is matched by errors.Is when resolution revisits an id
	// that is still being built on the current path.
	ErrCyclicDependency = errors.New("container: cyclic dependency")

	// ErrDuplicateDefinition is returned by Register and Provide when the id is taken.
	ErrDuplicateDefinition = errors.New("container: duplicate definition")

	// ErrInvalidDefinition covers empty ids, nil factories and malformed constructors.
	ErrInvalidDefinition = errors.New("container: invalid definition")

	// ErrFactory wraps any error returned (or panic raised) by a factory.
	ErrFactory = errors.New("container: factory failed")

	// ErrTypeMismatch is returned by the generic helpers when the resolved
	// instance is not of the requested type.
	ErrTypeMismatch = errors.New("container: type mismatch")
)

// UnknownDependencyError reports an id with no definition. Path is the
// resolution chain that led to it (empty for a top-level request).
type UnknownDependencyError struct {
	ID   string
	Path []string
}

func (e *UnknownDependencyError) Error() string {
	msg := "container: no definition registered for " + strconv.Quote(e.ID)
	if len(e.Path) > 0 {
		msg += " (required by " + strings.Join(e.Path, " -> ") + ")"
	}
	return msg
}

func (e *UnknownDependencyError) Is(target error) bool { return target == ErrUnknownDependency }

// CyclicDependencyError reports a dependency cycle. Path starts at the first
// requested id and ends with the id that was revisited.
type CyclicDependencyError struct {
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	return "container: dependency cycle " + strings.Join(e.Path, " -> ")
}

func (e *CyclicDependencyError) Is(target error) bool { return target == ErrCyclicDependency }

// Cycle returns only the looping part of Path, e.g. [b c b] for a -> b -> c -> b.
func (e *CyclicDependencyError) Cycle() []string {
	if len(e.Path) == 0 {
		return nil
	}
	last := e.Path[len(e.Path)-1]
	for i, id := range e.Path {
		if id == last {
			return append([]string(nil), e.Path[i:]...)
		}
	}
	return append([]string(nil), e.Path...)
}

// DuplicateDefinitionError is returned when an id is registered twice.
type DuplicateDefinitionError struct{ ID string }

func (e *DuplicateDefinitionError) Error() string {
	return "container: definition " + strconv.Quote(e.ID) + " already registered"
}

func (e *DuplicateDefinitionError) Is(target error) bool { return target == ErrDuplicateDefinition }

// InvalidDefinitionError describes why a registration was refused.
type InvalidDefinitionError struct {
	ID     string
	Reason string
}

func (e *InvalidDefinitionError) Error() string {
	return "container: invalid definition " + strconv.Quote(e.ID) + ": " + e.Reason
}

func (e *InvalidDefinitionError) Is(target error) bool { return target == ErrInvalidDefinition }

// FactoryError wraps a failure raised while building ID.
type FactoryError struct {
	ID  string
	Err error
}

func (e *FactoryError) Error() string {
	return "container: building " + strconv.Quote(e.ID) + ": " + e.Err.Error()
}

func (e *FactoryError) Unwrap() error { return e.Err }

func (e *FactoryError) Is(target error) bool { return target == ErrFactory }

// TypeMismatchError is returned when an instance cannot be used as the requested type.
type TypeMismatchError struct {
	ID   string
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return "container: " + strconv.Quote(e.ID) + " resolved to " + e.Got + ", want " + e.Want
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// wrapFactoryErr attributes err to id unless it already carries resolution
// context from a nested build.
func wrapFactoryErr(id string, err error) error {
	if err == nil {
		return nil
	}
	var (
		unknown *UnknownDependencyError
		cycle   *CyclicDependencyError
		factory *FactoryError
	)
	if errors.As(err, &unknown) || errors.As(err, &cycle) || errors.As(err, &factory) {
		return err
	}
	return &FactoryError{ID: id, Err: err}
}
