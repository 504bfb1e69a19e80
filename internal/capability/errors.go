package capability

// AnalysisError wraps a failed or malformed analysis response. The item is
// marked errored and the batch continues.
type AnalysisError struct {
	Err error
}

func (e *AnalysisError) Error() string { return "analysis failed: " + e.Err.Error() }
func (e *AnalysisError) Unwrap() error { return e.Err }

// GenerationError wraps a failed shot render. Remaining shots for the item
// are aborted; already-produced shots stay in history.
type GenerationError struct {
	ShotType string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.ShotType != "" {
		return "generation failed for shot " + e.ShotType + ": " + e.Err.Error()
	}
	return "generation failed: " + e.Err.Error()
}
func (e *GenerationError) Unwrap() error { return e.Err }

// TransportAuthError is the video path's entity-not-found condition: the
// credentials in use do not resolve the requested model or operation. It
// signals one credential re-selection and a single retry of the same
// request; it is not a content failure.
type TransportAuthError struct {
	Err error
}

func (e *TransportAuthError) Error() string { return "transport auth: " + e.Err.Error() }
func (e *TransportAuthError) Unwrap() error { return e.Err }

// VideoFailedError is a terminal content or safety failure reported by a
// completed video operation. Unlike TransportAuthError it must not be
// retried.
type VideoFailedError struct {
	Reason string
}

func (e *VideoFailedError) Error() string { return "video generation failed: " + e.Reason }
