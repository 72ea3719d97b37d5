package errors

import (
	"net/http"
	"strings"
)

// ErrorCode identifies a failure category. Codes are prefixed with the module
// that owns them so a code can be routed to a team or a dashboard by prefix.
type ErrorCode string

// String returns the raw code value.
func (c ErrorCode) String() string { return string(c) }

// ─────────────────────────────────────────────────────────────────────────────
// Common codes
// ─────────────────────────────────────────────────────────────────────────────

const (
	ErrCodeOK               ErrorCode = "OK"
	ErrCodeUnknown          ErrorCode = "COMMON_000"
	ErrCodeInternal         ErrorCode = "COMMON_001"
	ErrCodeInvalidParam     ErrorCode = "COMMON_002"
	ErrCodeNotFound         ErrorCode = "COMMON_003"
	ErrCodeConflict         ErrorCode = "COMMON_004"
	ErrCodeTimeout          ErrorCode = "COMMON_005"
	ErrCodeServiceUnavail   ErrorCode = "COMMON_006"
	ErrCodeValidation       ErrorCode = "COMMON_007"
	ErrCodeCanceled         ErrorCode = "COMMON_008"
	ErrCodeNotImplemented   ErrorCode = "COMMON_009"
	ErrCodePayloadTooLarge  ErrorCode = "COMMON_010"
	ErrCodeConfigurationErr ErrorCode = "COMMON_011"
)

// ─────────────────────────────────────────────────────────────────────────────
// Input boundary codes
// ─────────────────────────────────────────────────────────────────────────────

const (
	ErrCodeEmptyDataset       ErrorCode = "INPUT_001"
	ErrCodeMissingCoordinates ErrorCode = "INPUT_002"
	ErrCodeMalformedInput     ErrorCode = "INPUT_003"
	ErrCodeUnsupportedFormat  ErrorCode = "INPUT_004"
	ErrCodeMissingColumn      ErrorCode = "INPUT_005"
	ErrCodeSourceUnavailable  ErrorCode = "INPUT_006"
)

// ─────────────────────────────────────────────────────────────────────────────
// Analysis codes
// ─────────────────────────────────────────────────────────────────────────────

const (
	ErrCodeAnalysisFailed    ErrorCode = "ANALYSIS_001"
	ErrCodeInvalidParameters ErrorCode = "ANALYSIS_002"
	ErrCodeDocumentNotFound  ErrorCode = "ANALYSIS_003"
	ErrCodeEncodeFailed      ErrorCode = "ANALYSIS_004"
)

// ─────────────────────────────────────────────────────────────────────────────
// Store / infrastructure codes
// ─────────────────────────────────────────────────────────────────────────────

const (
	ErrCodeDatabaseError   ErrorCode = "STORE_001"
	ErrCodeCacheError      ErrorCode = "STORE_002"
	ErrCodeArchiveError    ErrorCode = "STORE_003"
	ErrCodeMessagingError  ErrorCode = "STORE_004"
	ErrCodeMigrationFailed ErrorCode = "STORE_005"
	ErrCodeIndexError      ErrorCode = "STORE_006"
)

// Short aliases used at call sites.
const (
	CodeOK           = ErrCodeOK
	CodeUnknown      = ErrCodeUnknown
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeInvalidParam
	CodeNotFound     = ErrCodeNotFound
)

// ErrorCodeHTTPStatus maps codes to the HTTP status returned by the API server.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeOK:               http.StatusOK,
	ErrCodeUnknown:          http.StatusInternalServerError,
	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeInvalidParam:     http.StatusBadRequest,
	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeConflict:         http.StatusConflict,
	ErrCodeTimeout:          http.StatusGatewayTimeout,
	ErrCodeServiceUnavail:   http.StatusServiceUnavailable,
	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeCanceled:         499,
	ErrCodeNotImplemented:   http.StatusNotImplemented,
	ErrCodePayloadTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeConfigurationErr: http.StatusInternalServerError,

	ErrCodeEmptyDataset:       http.StatusUnprocessableEntity,
	ErrCodeMissingCoordinates: http.StatusUnprocessableEntity,
	ErrCodeMalformedInput:     http.StatusUnprocessableEntity,
	ErrCodeUnsupportedFormat:  http.StatusUnsupportedMediaType,
	ErrCodeMissingColumn:      http.StatusUnprocessableEntity,
	ErrCodeSourceUnavailable:  http.StatusServiceUnavailable,

	ErrCodeAnalysisFailed:    http.StatusInternalServerError,
	ErrCodeInvalidParameters: http.StatusBadRequest,
	ErrCodeDocumentNotFound:  http.StatusNotFound,
	ErrCodeEncodeFailed:      http.StatusInternalServerError,

	ErrCodeDatabaseError:   http.StatusInternalServerError,
	ErrCodeCacheError:      http.StatusInternalServerError,
	ErrCodeArchiveError:    http.StatusBadGateway,
	ErrCodeMessagingError:  http.StatusBadGateway,
	ErrCodeMigrationFailed: http.StatusInternalServerError,
	ErrCodeIndexError:      http.StatusBadGateway,
}

// ErrorCodeMessage holds the default message for each code.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeOK:               "success",
	ErrCodeUnknown:          "unknown error",
	ErrCodeInternal:         "internal error",
	ErrCodeInvalidParam:     "invalid parameter",
	ErrCodeNotFound:         "resource not found",
	ErrCodeConflict:         "resource conflict",
	ErrCodeTimeout:          "operation timed out",
	ErrCodeServiceUnavail:   "service unavailable",
	ErrCodeValidation:       "validation failed",
	ErrCodeCanceled:         "operation canceled",
	ErrCodeNotImplemented:   "not implemented",
	ErrCodePayloadTooLarge:  "payload too large",
	ErrCodeConfigurationErr: "invalid configuration",

	ErrCodeEmptyDataset:       "service request dataset is empty",
	ErrCodeMissingCoordinates: "service request dataset has no usable coordinates",
	ErrCodeMalformedInput:     "input could not be parsed",
	ErrCodeUnsupportedFormat:  "unsupported input format",
	ErrCodeMissingColumn:      "required column is missing",
	ErrCodeSourceUnavailable:  "input source unavailable",

	ErrCodeAnalysisFailed:    "analysis failed",
	ErrCodeInvalidParameters: "invalid analysis parameters",
	ErrCodeDocumentNotFound:  "analysis document not found",
	ErrCodeEncodeFailed:      "failed to encode analysis document",

	ErrCodeDatabaseError:   "database error",
	ErrCodeCacheError:      "cache error",
	ErrCodeArchiveError:    "archive error",
	ErrCodeMessagingError:  "messaging error",
	ErrCodeMigrationFailed: "schema migration failed",
	ErrCodeIndexError:      "search index error",
}

// HTTPStatusForCode returns the HTTP status for code, 500 when unmapped.
func HTTPStatusForCode(code ErrorCode) int {
	if s, ok := ErrorCodeHTTPStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for code.
func DefaultMessageForCode(code ErrorCode) string {
	if m, ok := ErrorCodeMessage[code]; ok {
		return m
	}
	return ErrorCodeMessage[ErrCodeUnknown]
}

// IsClientError reports whether code maps to a 4xx status.
func IsClientError(code ErrorCode) bool {
	s := HTTPStatusForCode(code)
	return s >= 400 && s < 500
}

// IsServerError reports whether code maps to a 5xx status.
func IsServerError(code ErrorCode) bool {
	return HTTPStatusForCode(code) >= 500
}

// ModuleForCode returns the module prefix of code ("INPUT", "STORE", ...).
func ModuleForCode(code ErrorCode) string {
	s := string(code)
	if i := strings.IndexByte(s, '_'); i > 0 {
		return s[:i]
	}
	return s
}

// ExitCodeForCode maps an error code to a process exit status for the CLI.
// Input precondition violations exit with 2 so scripts can tell them apart
// from infrastructure failures.
func ExitCodeForCode(code ErrorCode) int {
	switch ModuleForCode(code) {
	case "OK":
		return 0
	case "INPUT":
		return 2
	default:
		return 1
	}
}

//Personal.AI order the ending
