package controller

import (
	"context"
	"encoding/json"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"brokerledger/src/model"
)

const (
	LevelWarn  = "warn"
	LevelError = "error"
	LevelFatal = "fatal"
)

// ExceptionRecorder persists captured exceptions.
type ExceptionRecorder interface {
	Create(ctx context.Context, exc *model.Exception) error
}

// Capture records a system exception, logs it locally, and optionally
// persists it in the database. It returns the reference shared by the log line
// and the stored row, or "" when err is nil.
func Capture(
	ctx context.Context,
	repo ExceptionRecorder,
	service string,
	module string,
	method string,
	level string,
	err error,
	contextData map[string]interface{},
) string {

	if err == nil {
		return ""
	}

	var ctxJSON string
	if contextData != nil {
		if b, e := json.Marshal(contextData); e == nil {
			ctxJSON = string(b)
		}
	}

	exc := &model.Exception{
		Reference: uuid.NewString(),
		Service:   service,
		Module:    module,
		Method:    method,
		Message:   err.Error(),
		Stack:     string(debug.Stack()),
		Level:     level,
		Context:   ctxJSON,
		CreatedAt: time.Now(),
	}

	// Local log
	logger.WithFields(map[string]interface{}{
		"service":   service,
		"module":    module,
		"method":    method,
		"level":     level,
		"reference": exc.Reference,
	}).WithError(err).Error("System exception captured")

	// Persist in database. The request context may already be cancelled.
	if repo != nil {
		if e := repo.Create(context.WithoutCancel(ctx), exc); e != nil {
			logger.WithError(e).Error("Failed to persist exception")
		}
	}

	return exc.Reference
}
