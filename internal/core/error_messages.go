package core

// error_messages.go turns technical errors into messages a user can act on.
//
// # Error Codes Reference
//
// Users quote the code to support; support finds the technical error in the
// logs by request ID.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: the upload exceeds the configured limit
//	          Action: Split the sheet or remove unused columns
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Unsupported or unreadable file
//	          Action: Upload an .xlsx workbook or a .csv file
//	          Matches: ErrUnsupportedFormat, ErrUnreadableSheet; "invalid csv"
//
//	FILE004 - No file: the form was submitted without a file
//	          Action: Choose a spreadsheet to upload
//	          Matches: ErrNoFile
//
//	FILE005 - Empty file: no header row was found
//	          Action: Upload a sheet with a header row and data rows
//	          Matches: ErrEmptySheet
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL005 - Column not found: a requested column is not in the header row
//	         Action: Check the column names against the sheet's first row
//	         Matches: *ColumnNotFoundError
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: every job slot is taken
//	         Action: Wait a moment and try again
//	         Matches: ErrTooManyJobs
//
//	UPL004 - Request cancelled      Matches: context.Canceled
//	UPL005 - Request timed out      Matches: context.DeadlineExceeded
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests from one client
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Anything else. The cause is carried in Detail so the user sees what failed.
//
// # Matching
//
// Known sentinel and typed errors are matched first with errors.Is and
// errors.As, so wrapping never hides them. Errors crossing a boundary as
// plain text fall back to case-insensitive substring patterns; the first
// match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`          // What happened
	Action  string `json:"action"`           // What to do about it
	Code    string `json:"code"`             // Support reference
	Detail  string `json:"detail,omitempty"` // Technical cause, ERR000 only
}

var (
	msgTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the sheet or remove unused columns",
		Code:    "FILE001",
	}
	msgUnsupported = UserMessage{
		Message: "File is not a readable spreadsheet",
		Action:  "Upload an .xlsx workbook or a .csv file",
		Code:    "FILE002",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Choose a spreadsheet to upload",
		Code:    "FILE004",
	}
	msgEmpty = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a sheet with a header row and data rows",
		Code:    "FILE005",
	}
	msgColumn = UserMessage{
		Message: "Column not found in the sheet",
		Action:  "Check the column names against the sheet's first row",
		Code:    "VAL005",
	}
	msgBusy = UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Wait a moment and try again",
		Code:    "UPL002",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "UPL005",
	}
	msgRate = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

// sentinels are checked in order with errors.Is. withCause entries copy
// the error text into Detail.
var sentinels = []struct {
	err       error
	msg       UserMessage
	withCause bool
}{
	{ErrNoFile, msgNoFile, false},
	{ErrUnsupportedFormat, msgUnsupported, false},
	{ErrUnreadableSheet, msgUnsupported, true},
	{ErrEmptySheet, msgEmpty, false},
	{ErrTooManyJobs, msgBusy, false},
	{context.DeadlineExceeded, msgTimeout, false},
	{context.Canceled, msgCancelled, false},
}

// errorPatterns match error text (lowercased) for errors that lost their type.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"file too large", msgTooLarge},
	{"request body too large", msgTooLarge},
	{"column not found", msgColumn},
	{"invalid csv", msgUnsupported},
	{"unsupported file format", msgUnsupported},
	{"no file provided", msgNoFile},
	{"empty file", msgEmpty},
	{"too many uploads", msgBusy},
	{"rate limit", msgRate},
}

// defaultMessage is the ERR000 fallback.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-facing message.
// Column errors name the missing columns; unreadable files and unknown errors
// carry their cause in Detail.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var colErr *ColumnNotFoundError
	if errors.As(err, &colErr) {
		msg := msgColumn
		msg.Message = fmt.Sprintf("Column not found: %s", strings.Join(quoteAll(colErr.Missing), ", "))
		if len(colErr.Available) > 0 {
			msg.Action = fmt.Sprintf("Available columns: %s", strings.Join(quoteAll(colErr.Available), ", "))
		}
		return msg
	}

	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			msg := s.msg
			if s.withCause {
				msg.Detail = err.Error()
			}
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	msg := defaultMessage
	msg.Detail = err.Error()
	return msg
}

// FormatUserError renders MapError as one line:
// "Message (Code: XXX). Action", followed by the cause for ERR000.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	out := fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
	if msg.Detail != "" {
		out += ": " + msg.Detail
	}
	return out
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
