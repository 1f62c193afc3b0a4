package remote

import (
	"errors"
	"fmt"
)

// Error carries a failed remote call verbatim: no retry happens on this side,
// callers decide whether to re-invoke.
type Error struct {
	Op         string // e.g. "GET /stages/5/groups"
	StatusCode int    // 0 when the request never reached the service
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote: %s returned %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("remote: %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRemote reports whether err originated from the tournament API.
func IsRemote(err error) bool {
	var re *Error
	return errors.As(err, &re)
}
