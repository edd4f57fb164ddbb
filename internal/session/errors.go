package session

import "fmt"

// NotFoundError means the session id is unknown or has expired.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session %s not found", e.ID)
}

// NotReadyError means the session exists but hasn't reached the stage
// the caller asked for yet.
type NotReadyError struct {
	Stage Stage
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("processing not complete, current stage %s", e.Stage)
}
