// Package errors provides standardized error handling for filesorter.
// It defines the error taxonomy of a sort pass: configuration and rule
// parsing errors abort a pass, placement and backup errors are recorded per
// file and never escape it.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors package errors that we re-export for convenience
var (
	// Unwrap unwraps an error to access the underlying error
	Unwrap = errors.Unwrap
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// File error kinds
	FileNotFound
	FileAccessDenied
	InvalidPath
	FileOperationFailed
	// Config error kinds
	InvalidConfig
	ConfigNotFound
	ConfigNotSet
	// Rule error kinds
	ParseFailed
	// Per-file sort errors
	PlacementFailed
	BackupFailed
)

// String returns a short name for the kind, used as a log field.
func (k ErrorKind) String() string {
	switch k {
	case FileNotFound:
		return "file_not_found"
	case FileAccessDenied:
		return "file_access_denied"
	case InvalidPath:
		return "invalid_path"
	case FileOperationFailed:
		return "file_operation_failed"
	case InvalidConfig:
		return "invalid_config"
	case ConfigNotFound:
		return "config_not_found"
	case ConfigNotSet:
		return "config_not_set"
	case ParseFailed:
		return "parse_failed"
	case PlacementFailed:
		return "placement_failed"
	case BackupFailed:
		return "backup_failed"
	default:
		return "unknown"
	}
}

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// FileError represents errors related to file operations
type FileError struct {
	ApplicationError
	path string
}

// NewFileError creates a new file error
func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path: path,
	}
}

// Error returns the file error message
func (e *FileError) Error() string {
	if e.path != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.path, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.path)
	}
	return e.ApplicationError.Error()
}

// Path returns the file path associated with the error
func (e *FileError) Path() string {
	return e.path
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// ParseError reports a rules file that exists but does not have the
// expected structure. Line is 0 when no position is known.
type ParseError struct {
	ApplicationError
	path string
	line int
}

// NewParseError creates a new rules parse error
func NewParseError(msg string, path string, line int, err error) *ParseError {
	return &ParseError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: ParseFailed,
		},
		path: path,
		line: line,
	}
}

// Error returns the parse error message
func (e *ParseError) Error() string {
	loc := e.path
	if loc == "" {
		loc = "<rules>"
	}
	if e.line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.line)
	}
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", loc, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", loc, e.msg)
}

// Path returns the rules file path
func (e *ParseError) Path() string {
	return e.path
}

// Line returns the 1-based line of the offending node
func (e *ParseError) Line() int {
	return e.line
}

// WithPath returns a copy of the error bound to a file path.
func (e *ParseError) WithPath(path string) *ParseError {
	c := *e
	c.path = path
	return &c
}

// PlacementError represents a failed move of a single file
type PlacementError struct {
	ApplicationError
	source      string
	destination string
}

// NewPlacementError creates a new placement error
func NewPlacementError(source, destination string, err error) *PlacementError {
	return &PlacementError{
		ApplicationError: ApplicationError{
			msg:  "failed to move file",
			err:  err,
			kind: PlacementFailed,
		},
		source:      source,
		destination: destination,
	}
}

// Error returns the placement error message
func (e *PlacementError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s -> %s: %v", e.msg, e.source, e.destination, e.err)
	}
	return fmt.Sprintf("%s: %s -> %s", e.msg, e.source, e.destination)
}

// Source returns the file that was being moved
func (e *PlacementError) Source() string {
	return e.source
}

// Destination returns the intended destination path
func (e *PlacementError) Destination() string {
	return e.destination
}

// BackupError represents a failed backup copy of a single file
type BackupError struct {
	ApplicationError
	source string
	backup string
}

// NewBackupError creates a new backup error
func NewBackupError(source, backup string, err error) *BackupError {
	return &BackupError{
		ApplicationError: ApplicationError{
			msg:  "failed to create backup",
			err:  err,
			kind: BackupFailed,
		},
		source: source,
		backup: backup,
	}
}

// Error returns the backup error message
func (e *BackupError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s -> %s: %v", e.msg, e.source, e.backup, e.err)
	}
	return fmt.Sprintf("%s: %s -> %s", e.msg, e.source, e.backup)
}

// Source returns the file being backed up
func (e *BackupError) Source() string {
	return e.source
}

// BackupPath returns the intended backup path
func (e *BackupError) BackupPath() string {
	return e.backup
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

// KindOf returns the kind of the first application error in err's chain.
func KindOf(err error) ErrorKind {
	type kinded interface{ Kind() ErrorKind }
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return Unknown
}

// IsFileNotFound checks if the error is a file not found error
func IsFileNotFound(err error) bool {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind() == FileNotFound
	}
	return false
}

// IsConfigError checks if the error is a configuration error of any kind
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == InvalidConfig
	}
	return false
}

// IsParseError checks if the error is a rules parse error
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// IsPlacementError checks if the error is a per-file placement error
func IsPlacementError(err error) bool {
	var placementErr *PlacementError
	return errors.As(err, &placementErr)
}

// IsBackupError checks if the error is a per-file backup error
func IsBackupError(err error) bool {
	var backupErr *BackupError
	return errors.As(err, &backupErr)
}

// IsFatal reports whether err must abort a sort pass.
func IsFatal(err error) bool {
	return IsConfigError(err) || IsParseError(err)
}
