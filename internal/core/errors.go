package core

import "errors"

var (
	// ErrNoFile is returned when an upload carries no file.
	ErrNoFile = errors.New("no file provided")

	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrWorkspaceNotFound is returned for unknown or expired workspace ids.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrTooManyWorkspaces is returned when the session limit is reached.
	ErrTooManyWorkspaces = errors.New("too many open workspaces")

	// ErrUploadInProgress is returned when a workspace is already loading.
	ErrUploadInProgress = errors.New("upload already in progress")

	// ErrCellNotDisplayed is returned when selecting a row that is not on
	// the current page.
	ErrCellNotDisplayed = errors.New("cell not displayed on current page")
)
