package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romusha/forumauth/pkg/binder"
	"github.com/romusha/forumauth/pkg/handler"
	"github.com/romusha/forumauth/pkg/validator"
)

type echoRequest struct {
	Name string `json:"name"`
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) handler.JSONResponse {
	t.Helper()
	var body handler.JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWrap_BindsAndRenders(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(
		func(ctx handler.Context, req echoRequest) handler.Response {
			return handler.JSON(map[string]string{"hello": req.Name})
		},
		handler.WithBinder[handler.Context, echoRequest](binder.JSON()),
	)

	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"alice"}`))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"hello":"alice"`)
}

func TestWrap_BindingFailureIs400(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(
		func(ctx handler.Context, req echoRequest) handler.Response {
			t.Fatal("handler must not run on binding failure")
			return nil
		},
		handler.WithBinder[handler.Context, echoRequest](binder.JSON()),
	)

	r := httptest.NewRequest("POST", "/", strings.NewReader(`not json`))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "bad_request", body.Error.Code)
}

func TestWrap_NilResponse(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(func(ctx handler.Context, req echoRequest) handler.Response {
		return nil
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestJSONError_HTTPError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	resp := handler.JSONError(handler.ErrNotFound)
	require.NoError(t, resp.Render(rec, httptest.NewRequest("GET", "/", nil)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "not_found", body.Error.Code)
}

func TestJSONError_ValidationErrors(t *testing.T) {
	t.Parallel()

	err := validator.Apply(validator.Required("email", ""))
	require.Error(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, handler.JSONError(err).Render(rec, httptest.NewRequest("POST", "/", nil)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Contains(t, body.Error.Details, "email")
}

func TestJSONError_StatusAndCodeOverride(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	resp := handler.JSONError(
		assertError("untrusted device"),
		handler.WithStatus(http.StatusForbidden),
		handler.WithErrorCode("untrusted_device"),
	)
	require.NoError(t, resp.Render(rec, httptest.NewRequest("POST", "/", nil)))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeBody(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "untrusted_device", body.Error.Code)
	assert.Equal(t, "untrusted device", body.Error.Message)
}

type assertError string

func (e assertError) Error() string { return string(e) }
