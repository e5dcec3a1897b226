package ports

import (
	"errors"
	"fmt"
)

// ErrInsufficientData means the listening snapshot did not contain enough
// usable history to compute a trustworthy personality profile. Callers fall
// back to keyword-only generation; this is never a user-facing error.
var ErrInsufficientData = errors.New("insufficient listening data")

// ErrAuthExpired means the session's credentials are unusable and the user
// must re-authenticate.
var ErrAuthExpired = errors.New("authentication expired")

// ErrNoConfidentMatch indicates search results did not meet the confidence
// threshold.
var ErrNoConfidentMatch = errors.New("no confident match")

// NoConfidentMatchError provides context for a failed track match.
type NoConfidentMatchError struct {
	Title  string
	Artist string
}

func (e *NoConfidentMatchError) Error() string {
	if e.Title == "" && e.Artist == "" {
		return ErrNoConfidentMatch.Error()
	}
	return fmt.Sprintf("no confident match found for title %q artist %q", e.Title, e.Artist)
}

func (e *NoConfidentMatchError) Is(target error) bool {
	return target == ErrNoConfidentMatch
}
