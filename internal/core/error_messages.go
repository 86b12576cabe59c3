// # Error Codes Reference
//
// Errors returned to users carry a code they can quote to support.
// Codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: upload exceeds the configured size limit
//	FILE002 - Unreadable file: no supported encoding could decode the file
//	FILE003 - Unknown encoding: the requested encoding is not supported
//	FILE004 - No file: a required file field was empty
//	FILE005 - Empty file: the file has no content
//	FILE006 - Unsupported format: .xlsb, .ods or .numbers workbook
//	FILE007 - Invalid separator: separator is not a single character
//	FILE008 - Sheet not found: the requested sheet does not exist
//	FILE009 - Output not found: a created file has expired or never existed
//
// # Diff Errors (DIFF001-DIFF099)
//
//	DIFF001 - No columns selected for comparison
//	DIFF002 - Primary key column missing from one file
//	DIFF003 - Selected column is not numeric in both files
//	DIFF004 - Column mapping could not be decoded
//
// # Option Errors (OPT001-OPT099)
//
//	OPT001 - Invalid cleaning options (unknown key or bad value)
//	OPT002 - Unknown output format
//	OPT003 - Invalid combine request (method or join columns)
//
// # Operation Errors (UPL001-UPL099)
//
//	UPL001 - System busy: too many operations in progress
//	UPL002 - Request cancelled
//	UPL003 - Request timed out
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: check the application logs for the technical error
//
// # Matching
//
// Typed engine errors are matched first with errors.Is / errors.As, so
// wrapping never hides them. Anything else falls through to a table of
// case-insensitive substrings; the first match wins, so specific patterns
// come before general ones.

package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Fanfan0315/Horisation/internal/clean"
	"github.com/Fanfan0315/Horisation/internal/combine"
	"github.com/Fanfan0315/Horisation/internal/diff"
	"github.com/Fanfan0315/Horisation/internal/export"
	"github.com/Fanfan0315/Horisation/internal/resolve"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// typedMatcher maps one engine error type or sentinel to a message.
type typedMatcher func(err error) (UserMessage, bool)

// typedMatchers run in order before the pattern table.
var typedMatchers = []typedMatcher{
	func(err error) (UserMessage, bool) {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return UserMessage{
				Message: fmt.Sprintf("File exceeds maximum size limit (%d bytes)", mbe.Limit),
				Action:  "Split the file into smaller chunks",
				Code:    "FILE001",
			}, true
		}
		return UserMessage{}, false
	},
	func(err error) (UserMessage, bool) {
		var ufe *resolve.UnreadableFileError
		if !errors.As(err, &ufe) {
			return UserMessage{}, false
		}
		if errors.Is(err, resolve.ErrUnknownEncoding) {
			return UserMessage{
				Message: "The requested encoding is not supported",
				Action:  "Use one of: " + strings.Join(resolve.DefaultEncodings, ", "),
				Code:    "FILE003",
			}, true
		}
		return UserMessage{
			Message: fmt.Sprintf("%s could not be read (tried %s)", ufe.Filename, strings.Join(ufe.Attempted, ", ")),
			Action:  "Save the file as UTF-8 or name its encoding explicitly",
			Code:    "FILE002",
		}, true
	},
	sentinel(ErrNoFile, UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV or Excel file",
		Code:    "FILE004",
	}),
	sentinel(resolve.ErrEmptyFile, UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a file with a header row",
		Code:    "FILE005",
	}),
	func(err error) (UserMessage, bool) {
		var ufe *resolve.UnsupportedFormatError
		if errors.As(err, &ufe) {
			return UserMessage{
				Message: fmt.Sprintf("%s files are not supported", ufe.Ext),
				Action:  "Save the workbook as .xlsx or CSV",
				Code:    "FILE006",
			}, true
		}
		return UserMessage{}, false
	},
	sentinel(resolve.ErrInvalidSeparator, UserMessage{
		Message: "The separator must be a single character",
		Action:  `Use ",", ";", "|", "\t" or "auto"`,
		Code:    "FILE007",
	}),
	sentinel(resolve.ErrSheetNotFound, UserMessage{
		Message: "The requested sheet does not exist",
		Action:  "Check the sheet name or leave it empty for the first sheet",
		Code:    "FILE008",
	}),
	sentinel(ErrArtifactNotFound, UserMessage{
		Message: "The requested output file was not found",
		Action:  "Run the operation again to recreate it",
		Code:    "FILE009",
	}),
	sentinel(diff.ErrEmptyMapping, UserMessage{
		Message: "No columns were selected for comparison",
		Action:  "Select at least one shared numeric column",
		Code:    "DIFF001",
	}),
	func(err error) (UserMessage, bool) {
		var ae *diff.AlignmentError
		if errors.As(err, &ae) {
			return UserMessage{
				Message: fmt.Sprintf("Primary key %q is missing from file %d", ae.Column, ae.Side),
				Action:  "Choose a key column present in both files, or none for row-by-row comparison",
				Code:    "DIFF002",
			}, true
		}
		return UserMessage{}, false
	},
	func(err error) (UserMessage, bool) {
		var ce *diff.ColumnError
		if errors.As(err, &ce) {
			return UserMessage{
				Message: fmt.Sprintf("Column %q cannot be compared: %s", ce.Column, ce.Reason),
				Action:  "Select only columns listed as shared numeric columns",
				Code:    "DIFF003",
			}, true
		}
		return UserMessage{}, false
	},
	sentinel(diff.ErrInvalidMapping, UserMessage{
		Message: "The column mapping is invalid",
		Action:  `Send [{"column":"x","selected":true,"primary_key":false}, ...]`,
		Code:    "DIFF004",
	}),
	sentinel(clean.ErrInvalidOptions, UserMessage{
		Message: "The cleaning options are invalid",
		Action:  "Check option names and allowed values",
		Code:    "OPT001",
	}),
	sentinel(export.ErrUnknownFormat, UserMessage{
		Message: "Unknown output format",
		Action:  "Use csv, xlsx or json",
		Code:    "OPT002",
	}),
	func(err error) (UserMessage, bool) {
		var mc *combine.MissingColumnError
		if errors.As(err, &mc) || errors.Is(err, combine.ErrUnknownMethod) || errors.Is(err, combine.ErrNoJoinColumns) {
			return UserMessage{
				Message: "The combine request is invalid",
				Action:  "Use method concat, or merge with join columns present in both files",
				Code:    "OPT003",
			}, true
		}
		return UserMessage{}, false
	},
	sentinel(ErrTooManyOperations, UserMessage{
		Message: "System is busy processing other requests",
		Action:  "Please wait a moment and try again",
		Code:    "UPL001",
	}),
	sentinel(context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL002",
	}),
	sentinel(context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "UPL003",
	}),
}

func sentinel(target error, msg UserMessage) typedMatcher {
	return func(err error) (UserMessage, bool) {
		if errors.Is(err, target) {
			return msg, true
		}
		return UserMessage{}, false
	}
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catches errors that crossed a boundary as plain text, such
// as errors from the multipart reader.
var errorPatterns = []errorPattern{
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "The requested output file was not found",
			Action:  "Run the operation again to recreate it",
			Code:    "FILE009",
		},
	},
	{
		pattern: "decode error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save the file as UTF-8 or name its encoding explicitly",
			Code:    "FILE002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "UPL003",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, m := range typedMatchers {
		if msg, ok := m(err); ok {
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// IsClientError reports whether err was caused by the request rather than
// by the server: any mapped code except the busy and cancellation codes.
func IsClientError(err error) bool {
	switch MapError(err).Code {
	case "", defaultMessage.Code, "UPL001", "UPL002", "UPL003", "RATE001":
		return false
	}
	return true
}
