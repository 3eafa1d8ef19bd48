package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"insiderwatch/internal/service"
	"insiderwatch/internal/store"
)

// Error kinds carried in the response meta so callers can branch without
// parsing messages.
const (
	KindInvalidInput       = "INVALID_INPUT"
	KindNotFound           = "NOT_FOUND"
	KindStorageUnavailable = "STORAGE_UNAVAILABLE"
	KindInternal           = "INTERNAL"
)

var errServiceMissing = errors.New("service unavailable")

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// Fail maps service and store errors onto the envelope. Anything
// unrecognized is INTERNAL.
func Fail(c *gin.Context, err error) {
	var invalid *service.ErrInvalidAddress
	switch {
	case errors.As(err, &invalid):
		Error(c, http.StatusBadRequest, err.Error(), map[string]any{"kind": KindInvalidInput})
	case errors.Is(err, store.ErrInvalidInput):
		Error(c, http.StatusBadRequest, err.Error(), map[string]any{"kind": KindInvalidInput})
	case errors.Is(err, store.ErrUnavailable):
		Error(c, http.StatusServiceUnavailable, err.Error(), map[string]any{"kind": KindStorageUnavailable})
	default:
		Error(c, http.StatusInternalServerError, err.Error(), map[string]any{"kind": KindInternal})
	}
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message, map[string]any{"kind": KindInvalidInput})
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message, map[string]any{"kind": KindNotFound})
}

// Query helpers reject unparseable values instead of falling back to the
// default; a missing or empty parameter is the only way to get the default.

func intQuery(c *gin.Context, key string, def int) (int, error) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return def, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return i, nil
}

func intQueryPtr(c *gin.Context, key string) (*int, error) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &i, nil
}

func int64Query(c *gin.Context, key string, def int64) (int64, error) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return def, nil
	}
	i, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return i, nil
}

func boolQueryDefault(c *gin.Context, key string, def bool) (bool, error) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return b, nil
}

func boolQueryPtr(c *gin.Context, key string) (*bool, error) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, fmt.Errorf("%s must be a boolean", key)
	}
	return &b, nil
}

func strQuery(c *gin.Context, key string) string {
	return strings.TrimSpace(c.Query(key))
}

func timeNow() time.Time {
	return time.Now().UTC()
}
