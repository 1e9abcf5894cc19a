package notify

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v3"

	"telegram-guess-bot/internal/pkg/retry"
)

func TestClassifyErrorFlood(t *testing.T) {
	err := tele.FloodError{
		RetryAfter: 7,
	}

	d := ClassifyError(err)
	assert.Equal(t, retry.ClassTransient, d.Class)
	assert.Equal(t, 7*time.Second, d.RetryAfter)
}

func TestClassifyErrorAlreadyDone(t *testing.T) {
	for _, msg := range []string{
		"telegram: message is not modified (400)",
		"telegram: message to delete not found (400)",
		"telegram: message to edit not found (400)",
		"telegram: query is too old and response timeout expired (400)",
	} {
		d := ClassifyError(errors.New(msg))
		assert.Equal(t, retry.ClassOK, d.Class, msg)
	}
}

func TestClassifyErrorAPI(t *testing.T) {
	badRequest := &tele.Error{Code: 400, Description: "Bad Request: chat not found"}
	assert.Equal(t, retry.ClassFatal, ClassifyError(badRequest).Class)

	serverError := &tele.Error{Code: 502, Description: "Bad Gateway"}
	assert.Equal(t, retry.ClassTransient, ClassifyError(serverError).Class)

	// Wrapped API errors classify the same.
	wrapped := fmt.Errorf("send: %w", badRequest)
	assert.Equal(t, retry.ClassFatal, ClassifyError(wrapped).Class)
}

func TestClassifyErrorNetwork(t *testing.T) {
	urlErr := &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: errors.New("connection reset")}
	assert.Equal(t, retry.ClassTransient, ClassifyError(urlErr).Class)

	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	assert.Equal(t, retry.ClassTransient, ClassifyError(opErr).Class)
}

func TestClassifyErrorUnknownIsFatal(t *testing.T) {
	assert.Equal(t, retry.ClassFatal, ClassifyError(errors.New("boom")).Class)
}
