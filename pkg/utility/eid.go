package utility

import (
	"sync"

	"github.com/google/uuid"
)

// ExecutionID identifies a single simulation run. All events produced during a
// run carry the same id so separate runs can be told apart in exported logs.
type ExecutionID = uuid.UUID

var (
	executionMu sync.Mutex
	executionID ExecutionID
)

// GetExecutionID returns the id of the current run, minting one on first use.
// Version 7 uuids keep exported rows sortable by run start time.
func GetExecutionID() ExecutionID {
	executionMu.Lock()
	defer executionMu.Unlock()

	if executionID == uuid.Nil {
		executionID = uuid.Must(uuid.NewV7())
	}
	return executionID
}

// ResetExecutionID mints a fresh id for the next run.
func ResetExecutionID() ExecutionID {
	executionMu.Lock()
	defer executionMu.Unlock()

	executionID = uuid.Must(uuid.NewV7())
	return executionID
}
