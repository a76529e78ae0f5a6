package utility

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGetExecutionID_StableWithinRun(t *testing.T) {
	id := GetExecutionID()

	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, id, GetExecutionID())
}

func TestResetExecutionID_MintsFreshID(t *testing.T) {
	before := GetExecutionID()
	after := ResetExecutionID()

	assert.NotEqual(t, before, after)
	assert.Equal(t, after, GetExecutionID())
}
