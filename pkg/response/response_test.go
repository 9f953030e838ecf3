package response

import (
	"errors"
	"testing"

	"backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
)

func TestSuccessEnvelope(t *testing.T) {
	resp := Success("Product fetched", map[string]string{"id": "p1"})
	assert.True(t, resp.Success)
	assert.Equal(t, "Product fetched", resp.Message)
	assert.NotNil(t, resp.Data)
}

func TestErrorEnvelope(t *testing.T) {
	resp := Error("product not found")
	assert.False(t, resp.Success)
	assert.Equal(t, "product not found", resp.Message)
	assert.Nil(t, resp.Data)
}

func TestFromErrorUsesDomainMessage(t *testing.T) {
	resp := FromError(apperror.Conflict("username already exists"))
	assert.False(t, resp.Success)
	assert.Equal(t, "username already exists", resp.Message)
}

func TestFromErrorHidesUnknownErrors(t *testing.T) {
	resp := FromError(errors.New("pq: connection refused"))
	assert.False(t, resp.Success)
	assert.Equal(t, "something went wrong", resp.Message)
}
