// Package negpyerr defines the closed set of error kinds the engine and
// its collaborators can surface, following the teacher's sentinel-error
// style (gg.ErrFallbackToCPU, gpu.ErrMemoryBudgetExceeded) but as a typed
// enum since the engine needs to branch on kind, not just identity.
package negpyerr

import "fmt"

// Kind is a closed enum of error categories the engine can surface.
type Kind string

const (
	LoaderUnsupported     Kind = "loader_unsupported"
	LoaderCorrupt         Kind = "loader_corrupt"
	CalibrationDegenerate Kind = "calibration_degenerate"
	GpuDeviceLost         Kind = "gpu_device_lost"
	GpuOutOfMemory        Kind = "gpu_out_of_memory"
	KernelCompileError    Kind = "kernel_compile_error"
	TileDispatchFailed    Kind = "tile_dispatch_failed"
	ReadbackFailed        Kind = "readback_failed"
	PersistenceFailed     Kind = "persistence_failed"
	ConfigInvalid         Kind = "config_invalid"
	PathNotFound          Kind = "path_not_found"
)

// Error is the engine's error type: a stable Kind for programmatic
// branching, a sanitized user-facing Message, and an optional wrapped
// Cause preserved for logging but never shown to the user.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to Cause.
func (e *Error) Unwrap() error { return e.Cause }

// New constructs an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an *Error that preserves cause for logging.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is supports errors.Is comparisons against a bare Kind-tagged sentinel
// constructed via New, so callers can write errors.Is(err, negpyerr.New(K, "")).
// Most callers should instead use AsKind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// AsKind reports whether err is a *Error of the given kind.
func AsKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
