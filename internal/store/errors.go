package store

import "errors"

var (
	ErrDuplicateTemplate = errors.New("template already exists")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrInvalidTemplate   = errors.New("invalid template")
	ErrInvalidBatch      = errors.New("invalid batch")
	ErrRecipientNotFound = errors.New("no customer info found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidSession    = errors.New("invalid session")
)
