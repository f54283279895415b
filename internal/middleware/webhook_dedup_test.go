package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDeduperSeen(t *testing.T) {
	d := newMemoryUpdateDeduper(time.Minute)
	ctx := context.Background()

	dup, err := d.Seen(ctx, 100)
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = d.Seen(ctx, 100)
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = d.Seen(ctx, 101)
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestMemoryDeduperExpiry(t *testing.T) {
	d := newMemoryUpdateDeduper(10 * time.Millisecond)
	ctx := context.Background()

	_, err := d.Seen(ctx, 100)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	dup, err := d.Seen(ctx, 100)
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestNewUpdateDeduperFallsBackWithoutAddr(t *testing.T) {
	d, err := NewUpdateDeduper("", "", 0, time.Minute)
	require.NoError(t, err)
	_, ok := d.(*memoryUpdateDeduper)
	assert.True(t, ok)
}

func dedupRequest(t *testing.T, mw echo.MiddlewareFunc, body string) (int, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handled := false
	h := mw(func(c echo.Context) error {
		handled = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec.Code, handled
}

func TestTelegramUpdateDedupDropsDuplicates(t *testing.T) {
	d := newMemoryUpdateDeduper(time.Minute)
	mw := TelegramUpdateDedup(d)

	code, handled := dedupRequest(t, mw, `{"update_id": 42}`)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, handled)

	code, handled = dedupRequest(t, mw, `{"update_id": 42}`)
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, handled, "duplicate update must not reach the handler")
}

func TestTelegramUpdateDedupPassesMalformedBody(t *testing.T) {
	d := newMemoryUpdateDeduper(time.Minute)
	mw := TelegramUpdateDedup(d)

	_, handled := dedupRequest(t, mw, "not json")
	assert.True(t, handled)

	_, handled = dedupRequest(t, mw, "")
	assert.True(t, handled)
}
