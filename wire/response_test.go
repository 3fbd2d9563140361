package wire

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusNames(t *testing.T) {
	for s := StatusOk; s <= StatusNotFound; s++ {
		parsed, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStatus("Teapot")
	assert.Error(t, err)
	assert.Equal(t, "Status(99)", Status(99).String())
}

func TestEncodeOKResponse(t *testing.T) {
	data, err := EncodeResponse(OK(nil))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(string(data), "\n"))
	assert.JSONEq(t, `{"body":null,"header":{"is_error":false,"messages":null,"status":"Ok"}}`, string(data))
}

func TestErrorResponse(t *testing.T) {
	query := "get"
	e := &Error{Message: "get must have an expression", QueryMessage: &query, Status: StatusInvalidQuery}

	resp := e.Response()
	assert.True(t, resp.Header.IsError)
	assert.Equal(t, StatusInvalidQuery, resp.Header.Status)
	assert.Equal(t, []string{"get must have an expression", "get"}, resp.Header.Messages)
	assert.Nil(t, resp.Body)
	assert.Equal(t, "InvalidQuery: get must have an expression", e.Error())
}

func TestDecodeResponse(t *testing.T) {
	data, err := EncodeResponse(OK([]string{"a", "b"}))
	require.NoError(t, err)

	resp, err := DecodeResponse(data)
	require.NoError(t, err)
	assert.Equal(t, StatusOk, resp.Header.Status)
	assert.Equal(t, []any{"a", "b"}, resp.Body)
}

func TestDecodeResponseKeepsLargeIntegers(t *testing.T) {
	data := []byte(`{"body":{"id":9007199254740993},"header":{"is_error":false,"messages":null,"status":"Ok"}}`)

	resp, err := DecodeResponse(data)
	require.NoError(t, err)
	body, ok := resp.Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, json.Number("9007199254740993"), body["id"])
}
