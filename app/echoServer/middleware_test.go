package echoServer

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newCtx(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/cars", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestStatusOf_ErrorBeforeCommit(t *testing.T) {
	c, _ := newCtx(t)

	// The error handler has not run yet, so the writer still says 200.
	require.Equal(t, http.StatusNotFound,
		statusOf(c, echo.NewHTTPError(http.StatusNotFound, "car not found")))
	require.Equal(t, http.StatusInternalServerError,
		statusOf(c, errors.New("boom")))
}

func TestStatusOf_CommittedResponseWins(t *testing.T) {
	c, _ := newCtx(t)
	require.NoError(t, c.JSON(http.StatusConflict, echo.Map{"message": "date conflict"}))

	require.Equal(t, http.StatusConflict, statusOf(c, nil))
	// A handler that wrote and then returned an error keeps the written code.
	require.Equal(t, http.StatusConflict, statusOf(c, errors.New("late failure")))
}

func TestStatusOf_Success(t *testing.T) {
	c, _ := newCtx(t)
	require.NoError(t, c.NoContent(http.StatusNoContent))
	require.Equal(t, http.StatusNoContent, statusOf(c, nil))
}
