package errors

// ErrorCode is a stable machine-readable error identifier
type ErrorCode string

const (
	ErrorCode_INTERNAL                 ErrorCode = "INTERNAL"
	ErrorCode_INVALID_ARGUMENT         ErrorCode = "INVALID_ARGUMENT"
	ErrorCode_NOT_FOUND                ErrorCode = "NOT_FOUND"
	ErrorCode_UNAUTHENTICATED          ErrorCode = "UNAUTHENTICATED"
	ErrorCode_PERMISSION_DENIED        ErrorCode = "PERMISSION_DENIED"
	ErrorCode_INVALID_PAYLOAD          ErrorCode = "INVALID_PAYLOAD"
	ErrorCode_UPSTREAM_UNAVAILABLE     ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrorCode_TRANSCRIPTION_FAILED     ErrorCode = "TRANSCRIPTION_FAILED"
	ErrorCode_MALFORMED_RESPONSE       ErrorCode = "MALFORMED_RESPONSE"
	ErrorCode_INVALID_STATE_TRANSITION ErrorCode = "INVALID_STATE_TRANSITION"
	ErrorCode_STORAGE_FAILED           ErrorCode = "STORAGE_FAILED"
	ErrorCode_DB_QUERY_FAILED          ErrorCode = "DB_QUERY_FAILED"
)

// String returns the code as a string
func (c ErrorCode) String() string {
	return string(c)
}
