// Package core provides the business logic for spreadsheet reconciliation.
//
// # Error Codes Reference
//
// This file maps technical errors to user-facing messages with a code that
// can be quoted to support.
//
// # Reconciliation Errors (RECON001-RECON099)
//
//	RECON001 - Missing input: the target or the source file was not supplied
//	           Action: Select both the target and the source spreadsheet
//	           Patterns: "missing input table"
//
//	RECON002 - Invalid layout: configured column offsets are unusable
//	           Action: Check the RECON_* column settings
//	           Patterns: "invalid layout"
//
//	RECON003 - Run expired: the result is no longer available
//	           Action: Run the reconciliation again
//	           Patterns: "run not found"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large           Patterns: "file too large", "request body too large"
//	FILE002 - Invalid spreadsheet      Patterns: "invalid spreadsheet"
//	FILE003 - No sheets                Patterns: "no sheets"
//	FILE004 - No file                  Patterns: "no file provided"
//	FILE005 - Write failure            Patterns: "encode spreadsheet"
//	FILE006 - Too many files           Patterns: "too many files"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy               Patterns: "too many concurrent"
//	UPL004 - Request cancelled         Patterns: "context canceled"
//	UPL005 - Request timeout           Patterns: "context deadline exceeded"
//
// # History Store Errors (DB001-DB099)
//
//	DB004 - Connection refused         Patterns: "connection refused"
//	DB005 - Connection reset           Patterns: "connection reset"
//	DB006 - Timeout                    Patterns: "timeout"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests        Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the application logs for the
// original error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Reconciliation
	{
		pattern: "missing input table",
		msg: UserMessage{
			Message: "Both a target and a source file are required",
			Action:  "Select both spreadsheets and try again",
			Code:    "RECON001",
		},
	},
	{
		pattern: "invalid layout",
		msg: UserMessage{
			Message: "The column layout is misconfigured",
			Action:  "Check the RECON_* column settings",
			Code:    "RECON002",
		},
	},
	{
		pattern: "run not found",
		msg: UserMessage{
			Message: "This result is no longer available",
			Action:  "Run the reconciliation again",
			Code:    "RECON003",
		},
	},

	// Files
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller workbooks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller workbooks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid spreadsheet",
		msg: UserMessage{
			Message: "File is not a readable spreadsheet",
			Action:  "Save the file as .xlsx and upload it again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no sheets",
		msg: UserMessage{
			Message: "The workbook has no sheets",
			Action:  "Upload a workbook with data on its first sheet",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a spreadsheet to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "encode spreadsheet",
		msg: UserMessage{
			Message: "The result could not be written",
			Action:  "Please try again",
			Code:    "FILE005",
		},
	},
	{
		pattern: "too many files",
		msg: UserMessage{
			Message: "Too many files were selected",
			Action:  "Merge the files in smaller groups",
			Code:    "FILE006",
		},
	},

	// Uploads
	{
		pattern: "too many concurrent",
		msg: UserMessage{
			Message: "System is busy processing other files",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try smaller files or check your connection",
			Code:    "UPL005",
		},
	},

	// History store
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the history database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "History database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// The first matching pattern wins; unknown errors map to ERR000.
//
//	msg := MapError(fmt.Errorf("reconcile: %w", ErrMissingInput))
//	// msg.Code == "RECON001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError formats err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError wraps err with its mapped user message. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
