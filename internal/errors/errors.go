package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// SignatureNotFound indicates a method signature is not part of the snapshot
	SignatureNotFound ErrorCode = "SIGNATURE_NOT_FOUND"
	// ProjectNotFound indicates the project root does not exist
	ProjectNotFound ErrorCode = "PROJECT_NOT_FOUND"
	// SnapshotMissing indicates no analysis snapshot has been written yet
	SnapshotMissing ErrorCode = "SNAPSHOT_MISSING"
	// SnapshotCorrupt indicates a snapshot artifact could not be decoded
	SnapshotCorrupt ErrorCode = "SNAPSHOT_CORRUPT"
	// ReportInvalid indicates a violation report could not be decoded
	ReportInvalid ErrorCode = "REPORT_INVALID"
	// ConfigInvalid indicates configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ProjectLocked indicates another run holds the project workspace
	ProjectLocked ErrorCode = "PROJECT_LOCKED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditConfig suggests editing a configuration file
	EditConfig FixActionType = "edit-config"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	Path        string        `json:"path,omitempty"`
}

// ChainError represents an engine error with code, message, and suggestions
type ChainError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// NewChainError creates a new ChainError. When fixes is nil the registered
// fixes for the code are attached.
func NewChainError(code ErrorCode, message string, cause error, fixes []FixAction) *ChainError {
	if fixes == nil {
		fixes = GetSuggestedFixes(code)
	}
	return &ChainError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: fixes,
	}
}

// Error implements the error interface
func (e *ChainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ChainError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *ChainError) WithDetails(details interface{}) *ChainError {
	e.Details = details
	return e
}

// NewSignatureNotFound reports a traversal or assembly request for an unknown signature.
func NewSignatureNotFound(signature string) *ChainError {
	return NewChainError(SignatureNotFound, fmt.Sprintf("method signature not found: %s", signature), nil, nil).
		WithDetails(map[string]string{"signature": signature})
}

// IsCode reports whether err (or anything it wraps) is a ChainError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var ce *ChainError
	if stderrors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	SignatureNotFound: {
		{
			Type:        RunCommand,
			Command:     "javachain index <project>",
			Safe:        true,
			Description: "Rebuild the snapshot and check the signature spelling",
		},
	},
	SnapshotMissing: {
		{
			Type:        RunCommand,
			Command:     "javachain index <project>",
			Safe:        true,
			Description: "Build the analysis snapshot",
		},
	},
	SnapshotCorrupt: {
		{
			Type:        RunCommand,
			Command:     "javachain index <project>",
			Safe:        true,
			Description: "Regenerate the analysis snapshot",
		},
	},
	ConfigInvalid: {
		{
			Type:        EditConfig,
			Path:        ".javachain/config.json",
			Description: "Fix the configuration file",
		},
	},
	ProjectLocked: {
		{
			Type:        RunCommand,
			Command:     "sleep 5 && javachain ${retry_command}",
			Safe:        true,
			Description: "Retry after the running analysis finishes",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
