package errprocess

import (
	"errors"
	"fmt"

	"tab_chat_sync/pkg/logger"

	"go.uber.org/zap"
)

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}

// Wrap log errMsg with the cause and return errMsg: cause, keeping cause for errors.Is
func Wrap(errMsg string, cause error) error {
	logger.Log.Error(errMsg, zap.Error(cause))
	return fmt.Errorf("%s: %w", errMsg, cause)
}
