package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesWrappedAppError(t *testing.T) {
	err := fmt.Errorf("append: %w", UnknownConversation("c1"))

	assert.True(t, Is(err, CodeUnknownConversation))
	assert.False(t, Is(err, CodeNotFound))
	assert.Equal(t, CodeUnknownConversation, CodeOf(err))
	assert.Equal(t, "", CodeOf(stderrors.New("plain")))
}

func TestSendFailedCarriesDraft(t *testing.T) {
	err := SendFailed("Hi there", context.DeadlineExceeded)

	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.Equal(t, map[string]string{"draft": "Hi there"}, err.Details)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUploadRejectedStatusByReason(t *testing.T) {
	assert.Equal(t, http.StatusRequestEntityTooLarge, UploadRejected(ReasonTooLarge).Status)
	assert.Equal(t, http.StatusBadRequest, UploadRejected(ReasonTypeNotAllowed).Status)
}

func TestWithDetailsDoesNotMutateOriginal(t *testing.T) {
	base := TooManyRequests("slow down")
	withDraft := base.WithDetails(map[string]string{"draft": "x"})

	assert.Nil(t, base.Details)
	assert.NotNil(t, withDraft.Details)
	assert.Equal(t, base.Code, withDraft.Code)
}
