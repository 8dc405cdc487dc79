package logger

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		InfoLogger.SetOutput(os.Stdout)
		DebugLogger.SetOutput(os.Stdout)
		WarnLogger.SetOutput(os.Stdout)
		ErrorLogger.SetOutput(os.Stderr)
	})
	return &buf
}

func TestDebugFollowsSwitch(t *testing.T) {
	buf := capture(t)
	defer SetDebug(debugEnabled.Load())

	SetDebug(false)
	Debug("hidden %d", 1)
	assert.Empty(t, buf.String())

	SetDebug(true)
	Debug("shown %d", 2)
	assert.Contains(t, buf.String(), "DEBUG: ")
	assert.Contains(t, buf.String(), "shown 2")
}

func TestFollowUpFailedNamesConversationAndAction(t *testing.T) {
	buf := capture(t)

	FollowUpFailed("conv_1", "record_message", errors.New("deadline exceeded"))

	out := buf.String()
	assert.Contains(t, out, "WARN: ")
	assert.Contains(t, out, "action=record_message conversation=conv_1 error=deadline exceeded")
	assert.Contains(t, out, "logger_test.go")
}
