package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

const flags = log.Ldate | log.Ltime | log.Lshortfile

var (
	InfoLogger  = log.New(os.Stdout, "INFO: ", flags)
	ErrorLogger = log.New(os.Stderr, "ERROR: ", flags)
	DebugLogger = log.New(os.Stdout, "DEBUG: ", flags)
	WarnLogger  = log.New(os.Stdout, "WARN: ", flags)

	debugEnabled atomic.Bool
)

func init() {
	debugEnabled.Store(os.Getenv("ENVIRONMENT") == "development")
}

// SetDebug turns Debug output on or off.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// SetOutput sends every level to w.
func SetOutput(w io.Writer) {
	for _, l := range []*log.Logger{InfoLogger, ErrorLogger, DebugLogger, WarnLogger} {
		l.SetOutput(w)
	}
}

func Info(format string, v ...interface{}) {
	InfoLogger.Output(2, fmt.Sprintf(format, v...))
}

func Error(format string, v ...interface{}) {
	ErrorLogger.Output(2, fmt.Sprintf(format, v...))
}

func Debug(format string, v ...interface{}) {
	if debugEnabled.Load() {
		DebugLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

func Warn(format string, v ...interface{}) {
	WarnLogger.Output(2, fmt.Sprintf(format, v...))
}

// FollowUpFailed records a side effect that failed after a message was already stored.
// The message stands; only the summary, notification or link is stale.
func FollowUpFailed(conversationID, action string, err error) {
	WarnLogger.Output(2, fmt.Sprintf("Conversation follow-up failed: action=%s conversation=%s error=%v", action, conversationID, err))
}
