package core

// error_messages.go maps technical errors to user-friendly messages with
// codes for support reference. Users quote the code; support looks it up here.
//
// # Validation Errors (VAL)
//
//	VAL004 - Missing column: Required column is missing from CSV
//	         Patterns: "missing required column"
//
// # File Errors (FILE)
//
//	FILE001 - File too large          Patterns: "file too large"
//	FILE002 - Invalid CSV             Patterns: "invalid csv"
//	FILE003 - Encoding error          Patterns: "encoding error"
//	FILE004 - No file                 Patterns: "no file provided"
//	FILE005 - Empty file              Patterns: "empty file"
//	FILE006 - Unsupported format      Patterns: "unsupported file type", "failed to open xlsx"
//
// # Reference Data (REF)
//
//	REF001 - Country list unavailable Patterns: "country reference unavailable"
//
// # Run Errors (RUN)
//
//	RUN001 - Run not found            Patterns: "run not found"
//	RUN002 - System busy              Patterns: "too many concurrent runs"
//	RUN003 - Stage out of order       Patterns: "stage out of order"
//	RUN004 - Request cancelled        Patterns: "context canceled"
//	RUN005 - Request timeout          Patterns: "context deadline exceeded"
//
// # History Database (DB)
//
//	DB004 - Connection refused        Patterns: "connection refused"
//	DB006 - Timeout                   Patterns: "timeout"
//
// # Rate Limiting (RATE)
//
//	RATE001 - Rate limited            Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check application logs for the
// original technical error.
//
// Rules are tried in order. A rule with a sentinel matches through errors.Is;
// otherwise its pattern is matched case-insensitively against the message,
// so specific patterns come before general ones.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorRule maps a sentinel or a message fragment to a UserMessage.
type errorRule struct {
	target  error
	pattern string
	msg     UserMessage
}

func (r errorRule) matches(err error, lower string) bool {
	if r.target != nil && errors.Is(err, r.target) {
		return true
	}
	return r.pattern != "" && strings.Contains(lower, r.pattern)
}

var errorRules = []errorRule{
	{ErrMissingColumn, "missing required column", UserMessage{
		"Required column is missing from CSV", "Make sure the header contains name, email, country and age", "VAL004"}},

	{nil, "file too large", UserMessage{
		"File exceeds maximum size limit", "Split the file into smaller chunks", "FILE001"}},
	{nil, "invalid csv", UserMessage{
		"File is not a valid CSV", "Ensure file is comma-separated with a header row", "FILE002"}},
	{nil, "encoding error", UserMessage{
		"File contains invalid characters", "Save file as UTF-8 encoding", "FILE003"}},
	{nil, "no file provided", UserMessage{
		"No file was selected", "Please select a CSV file to upload", "FILE004"}},
	{ErrEmptyInput, "empty file", UserMessage{
		"The uploaded file is empty", "Please upload a CSV file with a header and data rows", "FILE005"}},
	{nil, "unsupported file type", UserMessage{
		"File type is not supported", "Upload a .csv or .xlsx file", "FILE006"}},
	{nil, "failed to open xlsx", UserMessage{
		"Workbook could not be opened", "Re-save the workbook in Excel or export it as CSV", "FILE006"}},

	{ErrReferenceFile, "country reference unavailable", UserMessage{
		"The list of valid countries could not be loaded", "Check PIPELINE_COUNTRIES_FILE and PIPELINE_ALIASES_FILE", "REF001"}},

	{ErrRunNotFound, "run not found", UserMessage{
		"Run not found", "The run may have expired. Please upload the file again", "RUN001"}},
	{ErrTooManyRuns, "too many concurrent runs", UserMessage{
		"System is busy processing other files", "Please wait a moment and try again", "RUN002"}},
	{ErrStageOrder, "stage out of order", UserMessage{
		"This step cannot run yet", "Run Detection, then Correction, then Enrichment", "RUN003"}},
	{context.Canceled, "context canceled", UserMessage{
		"Request was cancelled", "Please try again", "RUN004"}},
	{context.DeadlineExceeded, "context deadline exceeded", UserMessage{
		"Request timed out", "Try a smaller file or try again later", "RUN005"}},

	{nil, "connection refused", UserMessage{
		"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{nil, "timeout", UserMessage{
		"Operation timed out", "Please try again later", "DB006"}},

	{nil, "rate limit", UserMessage{
		"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// defaultMessage is returned when no rule matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message, falling
// back to ERR000. A nil error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	lower := strings.ToLower(err.Error())
	for _, rule := range errorRules {
		if rule.matches(err, lower) {
			return rule.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string { return e.User.Message }

func (e *UserError) Unwrap() error { return e.Technical }

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
