package errors

import (
	"go.uber.org/zap"
)

// LogError logs err at error level with its code attached
func LogError(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if err == nil {
		return
	}
	logger.Error(msg, errorFields(err, fields)...)
}

// LogWarn is LogError at warn level, for failures that are expected and swallowed
func LogWarn(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if err == nil {
		return
	}
	logger.Warn(msg, errorFields(err, fields)...)
}

func errorFields(err error, fields []zap.Field) []zap.Field {
	allFields := make([]zap.Field, 0, len(fields)+2)
	allFields = append(allFields, zap.Error(err))

	var appErr *AppError
	if As(err, &appErr) {
		allFields = append(allFields, zap.String("error_code", appErr.Code()))
	}

	return append(allFields, fields...)
}
