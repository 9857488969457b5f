package response

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"table-sync/internal/utils"
)

func TestErrorResponseFromAppError(t *testing.T) {
	appErr := utils.NewSyncFailedError(errors.New("connection refused"))

	resp := ErrorResponseFromAppError(appErr, "corr-1")

	assert.False(t, resp.Success)
	assert.Equal(t, utils.ErrCodeSyncFailed, resp.Error.Code)
	assert.Equal(t, "connection refused", resp.Error.Details)
	assert.Equal(t, "corr-1", resp.CorrelationID)
}

func TestUnauthorizedResponseDefaultsMessage(t *testing.T) {
	resp := UnauthorizedResponse("", "")

	assert.Equal(t, "Unauthorized access", resp.Error.Message)
	assert.Equal(t, utils.ErrCodeUnauthorized, resp.Error.Code)
}
