package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrTitleRequired)
	assert.Equal(t, ErrTitleRequired, err.Code)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
	assert.Equal(t, "[2003] Title is required", err.Error())
	assert.Equal(t, "Title is required", UserMessage(err))

	err = New(ErrUnknownSearchType, "bogus")
	assert.Equal(t, "Invalid search type: bogus", UserMessage(err))
}

func TestNewf(t *testing.T) {
	err := Newf(ErrUnknownSearchType, "Invalid search type: %s", "x")
	assert.Equal(t, "Invalid search type: x", UserMessage(err))
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrUpstream))

	base := errors.New("dial tcp: refused")
	err := Wrap(base, ErrUpstream)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, base)
	assert.True(t, Is(err, ErrUpstream))
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus())

	// already an AppError: code is kept, details replaced
	again := Wrap(fmt.Errorf("outer: %w", New(ErrExportEmpty)), ErrInternalServer, "more")
	assert.Equal(t, ErrExportEmpty, again.Code)
	assert.Equal(t, "more", again.Details)
}

func TestExtractCode(t *testing.T) {
	assert.Equal(t, ErrExportEmpty, ExtractCode(New(ErrExportEmpty)))
	assert.Equal(t, ErrInternalServer, ExtractCode(errors.New("plain")))
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
	assert.Equal(t, "", UserMessage(nil))
}

func TestCodeTable(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(99999))
	assert.True(t, IsClientError(ErrInvalidParams))
	assert.False(t, IsClientError(ErrUpstream))
	assert.Equal(t, "Bad request: missing body", FormatError(ErrBadRequest, "missing body"))
	assert.Equal(t, "Bad request", FormatError(ErrBadRequest))
}

func TestGetDetails(t *testing.T) {
	assert.Equal(t, "bogus", GetDetails(New(ErrUnknownSearchType, "bogus")))
	assert.Equal(t, "plain", GetDetails(errors.New("plain")))
	assert.Equal(t, "", GetDetails(nil))
}
