package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAppErrorThroughWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("send: %w", NewDatabaseError("failed to save message", cause))

	appErr, ok := AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, ErrDatabase, appErr.Code)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to save message: connection reset", appErr.Error())
	assert.True(t, IsErrorCode(err, ErrDatabase))
	assert.False(t, IsErrorCode(errors.New("plain"), ErrDatabase))
}

func TestAppErrorToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, AppErrorToHTTPStatus(ErrValidation))
	assert.Equal(t, http.StatusNotFound, AppErrorToHTTPStatus(ErrNotFound))
	assert.Equal(t, http.StatusForbidden, AppErrorToHTTPStatus(ErrForbidden))
	assert.Equal(t, http.StatusForbidden, AppErrorToHTTPStatus(ErrNoMentorshipConnection))
	assert.Equal(t, http.StatusConflict, AppErrorToHTTPStatus(ErrConflict))
	assert.Equal(t, http.StatusInternalServerError, AppErrorToHTTPStatus(ErrDatabase))
	assert.Equal(t, http.StatusInternalServerError, AppErrorToHTTPStatus("SOMETHING_ELSE"))
}

func TestMetricsCollector(t *testing.T) {
	mc := NewMetricsCollector()
	mc.IncrementRequests()
	mc.IncrementRequests()
	mc.IncrementErrors("notify")
	mc.RecordEvent("user_typing", "dropped")
	mc.AddOperationLatency("send_message", 3*time.Millisecond)
	mc.SetOnlineAccounts(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(mc.requests))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.errors.WithLabelValues("notify")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.events.WithLabelValues("user_typing", "dropped")))
	assert.Equal(t, 3.0, testutil.ToFloat64(mc.online))
	assert.Equal(t, 1, testutil.CollectAndCount(mc.latencies))
}
