package project

import "errors"

var (
	ErrInvalidUsageType     = errors.New("schema usage must be a mapping or false if present")
	ErrMissingMapping       = errors.New("a mapping is mandatory when schema usage is defined")
	ErrUsageMappingMismatch = errors.New("schema usage and mapping keys must match")
	ErrInvalidPluginsValue  = errors.New("schema plugins must be false if present")
	ErrInvalidUsageField    = errors.New("invalid schema usage field")
	ErrColumnCollision      = errors.New("mapping storage column collision")
	ErrEmptySlug            = errors.New("project name does not produce a slug")
	ErrInvalidURL           = errors.New("project url is not a valid URL")
)
