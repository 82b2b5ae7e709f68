package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrResumeNotFound     = errors.New("resume not found")
	ErrThreadNotFound     = errors.New("thread not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrNoLiveBrowser      = errors.New("no live browser for session")
)
