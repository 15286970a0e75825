package config

import "errors"

var (
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrInvalidBackendConfig = errors.New("invalid backend configuration")
)
