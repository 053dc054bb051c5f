package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMeta(t *testing.T) {
	m := NewMeta(101, 2, 50)
	assert.Equal(t, 3, m.Pages)
	assert.True(t, m.HasNext)
	assert.True(t, m.HasPrev)

	m = NewMeta(0, 1, 50)
	assert.Equal(t, 0, m.Pages)
	assert.False(t, m.HasNext)
	assert.False(t, m.HasPrev)
}

func TestValidationMessages(t *testing.T) {
	rr := httptest.NewRecorder()
	ValidationMessages(rr, []string{"Room name is required", "Invalid room type"})

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var body Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Equal(t, []string{"Room name is required", "Invalid room type"}, body.Error.Messages)
}

func TestJSONSuccessFlag(t *testing.T) {
	rr := httptest.NewRecorder()
	Created(rr, map[string]int64{"id": 7})

	var body Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}
