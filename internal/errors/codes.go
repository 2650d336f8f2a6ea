// Package errors provides structured error handling for pluginkit.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, disk)
//   - 3XX: Platform (network) errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryPlatform indicates a failed call to the hosted platform.
	CategoryPlatform Category = "PLATFORM"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound    = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid     = "ERR_102_CONFIG_INVALID"
	ErrCodeCredentialMissing = "ERR_103_CREDENTIAL_MISSING"

	// IO errors (200-299)
	ErrCodeFileNotFound    = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission  = "ERR_202_FILE_PERMISSION"
	ErrCodeBuildNotFound   = "ERR_203_BUILD_NOT_FOUND"
	ErrCodeRegistryCorrupt = "ERR_204_REGISTRY_CORRUPT"

	// Platform errors (300-399)
	ErrCodeRequestFailed    = "ERR_301_REQUEST_FAILED"
	ErrCodeUnexpectedStatus = "ERR_302_UNEXPECTED_STATUS"
	ErrCodeNotFound         = "ERR_303_NOT_FOUND"
	ErrCodeUnauthorized     = "ERR_304_UNAUTHORIZED"
	ErrCodeMirrorFailed     = "ERR_305_MIRROR_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidInput    = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidCommand  = "ERR_402_INVALID_COMMAND"
	ErrCodeInvalidVersion  = "ERR_403_INVALID_VERSION"
	ErrCodeDuplicatePath   = "ERR_404_DUPLICATE_PATH"
	ErrCodePreflightFailed = "ERR_405_PREFLIGHT_FAILED"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryPlatform
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeRegistryCorrupt, ErrCodeUnauthorized:
		return SeverityFatal
	case ErrCodeMirrorFailed:
		return SeverityWarning
	}
	return SeverityError
}
