package contract

import "errors"

var (
	ErrOracleInvoke      = errors.New("oracle invoke failed")
	ErrSchemaViolation   = errors.New("oracle response violates schema")
	ErrValidation        = errors.New("validation failed")
	ErrUnknownCapability = errors.New("unknown capability")
	ErrEmptyMessage      = errors.New("response message is empty")
)
