package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/sheetview/internal/codec"
)

// UserMessage is what the UI shows for a failure: what happened, what to do,
// and a code to quote to support.
type UserMessage struct {
	Message string
	Action  string
	Code    string
}

// errorRule matches by errors.Is when target is set, otherwise by a
// case-insensitive substring of the error text. Errors that lost their
// wrapping (across the JSON API, say) still match by text.
type errorRule struct {
	target  error
	pattern string
	msg     UserMessage
}

var (
	msgExportFailed = UserMessage{"The export could not be written", "Please try the export again", "FILE006"}
	msgFileTooLarge = UserMessage{"File exceeds the maximum upload size", "Remove unused sheets or rows and try again", "FILE001"}

	// Rules are checked in order; the first hit wins.
	errorRules = []errorRule{
		{ErrFileTooLarge, "file too large", msgFileTooLarge},
		{codec.ErrWorkbookTooLarge, "file too large once unpacked", msgFileTooLarge},
		{codec.ErrInvalidSpreadsheet, "invalid spreadsheet",
			UserMessage{"File could not be read as a spreadsheet", "Re-save the file as .xlsx or .csv and upload it again", "FILE002"}},
		{codec.ErrUnsupportedFormat, "unsupported format",
			UserMessage{"This file type is not supported", "Upload an .xlsx, .xlsm, .csv or .tsv file", "FILE003"}},
		{ErrNoFile, "no file provided",
			UserMessage{"No file was selected", "Choose a spreadsheet file to upload", "FILE004"}},
		{codec.ErrEmptyFile, "empty file",
			UserMessage{"The uploaded file is empty", "Upload a spreadsheet with a header row", "FILE005"}},
		{nil, "write workbook", msgExportFailed},
		{nil, "export failed", msgExportFailed},

		{ErrUploadInProgress, "upload already in progress",
			UserMessage{"Another file is still loading", "Wait for the current upload to finish", "UPL001"}},
		{ErrTooManyUploads, "too many concurrent uploads",
			UserMessage{"System is busy processing other uploads", "Please wait a moment and try again", "UPL002"}},
		{nil, "read upload",
			UserMessage{"The upload was interrupted", "Check your connection and upload the file again", "UPL003"}},
		{context.Canceled, "context canceled",
			UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
		{context.DeadlineExceeded, "context deadline exceeded",
			UserMessage{"Request timed out", "Try a smaller file or check your connection", "UPL005"}},

		{ErrWorkspaceNotFound, "workspace not found",
			UserMessage{"This workspace no longer exists", "Upload the file again to start a new workspace", "WS001"}},
		{ErrTooManyWorkspaces, "too many open workspaces",
			UserMessage{"Too many workspaces are open", "Close an existing workspace or try again later", "WS002"}},
		{ErrCellNotDisplayed, "cell not displayed",
			UserMessage{"That row is not on the current page", "Reload the page and select the cell again", "WS003"}},

		{nil, "rate limit",
			UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
	}

	unknownError = UserMessage{"An unexpected error occurred", "Please try again or contact support", "ERR000"}
)

// MapError picks the user message for err, falling back to ERR000. A nil
// error maps to the zero UserMessage.
//
//	MapError(fmt.Errorf("upload: %w", ErrFileTooLarge)).Code // "FILE001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, r := range errorRules {
		if r.target != nil && errors.Is(err, r.target) {
			return r.msg
		}
	}
	text := strings.ToLower(err.Error())
	for _, r := range errorRules {
		if strings.Contains(text, r.pattern) {
			return r.msg
		}
	}
	return unknownError
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	m := MapError(err)
	if m.Code == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", m.Message, m.Code, m.Action)
}

// IsUserFacing reports whether err has a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != unknownError.Code
}
