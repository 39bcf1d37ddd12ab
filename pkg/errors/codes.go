package errors

// Device SDK error codes, grouped by concern. Codes are stable across
// releases; transports map their protocol-level status values onto them.
const (
	// Usage errors (1000-1099)
	CodeInvalidArgument int = 1000 // Caller supplied an invalid argument
	CodeClientClosed    int = 1001 // Client used after Close, or disposed mid-operation
	CodeNotSupported    int = 1002 // Operation not supported by the active transport

	// Transport and communication errors (1100-1199)
	CodeCommunicationError int = 1100 // Generic network-level failure
	CodeConnectionFailed   int = 1101 // Failed to establish a connection
	CodeConnectionLost     int = 1102 // Connection dropped during an operation
	CodeTimeout            int = 1103 // Operation deadline exceeded
	CodeSocketError        int = 1104 // Socket-level fault (reset, refused, broken pipe)

	// Service availability errors (1200-1299)
	CodeThrottled     int = 1200 // Service rejected the request due to rate limits
	CodeServerBusy    int = 1201 // Service temporarily overloaded
	CodeServerError   int = 1202 // Service-side internal failure
	CodeQuotaExceeded int = 1203 // Daily message quota exhausted

	// Security errors (1300-1399)
	CodeUnauthorized     int = 1300 // Authentication or authorization failure
	CodeCertificateTrust int = 1301 // TLS certificate validation failure

	// Operation errors (1400-1499)
	CodeOperationCancelled int = 1400 // Operation cancelled by the caller
	CodeTransient          int = 1401 // Canonical transient error; safe to retry

	// Service resource errors (1500-1599)
	CodeDeviceNotFound     int = 1500 // Device identity not registered
	CodeDeviceDisabled     int = 1501 // Device identity disabled by the service
	CodeMessageTooLarge    int = 1502 // Message exceeds the service size limit
	CodePreconditionFailed int = 1503 // ETag or lock token precondition failed

	// Fatal errors (1900-1999)
	CodeFatal int = 1900 // Unrecoverable process condition
)

// ErrorCodeInfo provides human-readable information about error codes
type ErrorCodeInfo struct {
	Code        int
	Name        string
	Description string
	Category    Category
	Severity    Severity
}

// errorCodeRegistry maps error codes to their information
var errorCodeRegistry = map[int]ErrorCodeInfo{
	CodeInvalidArgument: {CodeInvalidArgument, "InvalidArgument", "Invalid argument", CategoryUsage, SeverityError},
	CodeClientClosed:    {CodeClientClosed, "ClientClosed", "Client is closed", CategoryUsage, SeverityError},
	CodeNotSupported:    {CodeNotSupported, "NotSupported", "Operation not supported", CategoryUsage, SeverityError},

	CodeCommunicationError: {CodeCommunicationError, "CommunicationError", "Network communication failure", CategoryTransport, SeverityError},
	CodeConnectionFailed:   {CodeConnectionFailed, "ConnectionFailed", "Connection could not be established", CategoryTransport, SeverityCritical},
	CodeConnectionLost:     {CodeConnectionLost, "ConnectionLost", "Connection lost during operation", CategoryTransport, SeverityError},
	CodeTimeout:            {CodeTimeout, "Timeout", "Operation timed out", CategoryTimeout, SeverityError},
	CodeSocketError:        {CodeSocketError, "SocketError", "Socket-level fault", CategoryTransport, SeverityError},

	CodeThrottled:     {CodeThrottled, "Throttled", "Request throttled by service", CategoryThrottling, SeverityWarning},
	CodeServerBusy:    {CodeServerBusy, "ServerBusy", "Service temporarily overloaded", CategoryService, SeverityWarning},
	CodeServerError:   {CodeServerError, "ServerError", "Service-side internal failure", CategoryService, SeverityError},
	CodeQuotaExceeded: {CodeQuotaExceeded, "QuotaExceeded", "Message quota exhausted", CategoryService, SeverityError},

	CodeUnauthorized:     {CodeUnauthorized, "Unauthorized", "Authentication failure", CategorySecurity, SeverityCritical},
	CodeCertificateTrust: {CodeCertificateTrust, "CertificateTrust", "TLS certificate validation failure", CategorySecurity, SeverityCritical},

	CodeOperationCancelled: {CodeOperationCancelled, "OperationCancelled", "Operation cancelled", CategoryCancelled, SeverityInfo},
	CodeTransient:          {CodeTransient, "Transient", "Transient failure, safe to retry", CategoryTransport, SeverityWarning},

	CodeDeviceNotFound:     {CodeDeviceNotFound, "DeviceNotFound", "Device identity not registered", CategoryService, SeverityError},
	CodeDeviceDisabled:     {CodeDeviceDisabled, "DeviceDisabled", "Device identity disabled", CategoryService, SeverityError},
	CodeMessageTooLarge:    {CodeMessageTooLarge, "MessageTooLarge", "Message exceeds size limit", CategoryUsage, SeverityError},
	CodePreconditionFailed: {CodePreconditionFailed, "PreconditionFailed", "Precondition failed", CategoryUsage, SeverityError},

	CodeFatal: {CodeFatal, "Fatal", "Unrecoverable process condition", CategoryInternal, SeverityCritical},
}

// GetErrorCodeInfo returns information about an error code
func GetErrorCodeInfo(code int) (ErrorCodeInfo, bool) {
	info, exists := errorCodeRegistry[code]
	return info, exists
}

// GetErrorCodeName returns the name of an error code
func GetErrorCodeName(code int) string {
	if info, exists := errorCodeRegistry[code]; exists {
		return info.Name
	}
	return "UnknownError"
}

// GetErrorCodeCategory returns the category of an error code
func GetErrorCodeCategory(code int) Category {
	if info, exists := errorCodeRegistry[code]; exists {
		return info.Category
	}
	return CategoryInternal
}

// GetErrorCodeSeverity returns the severity of an error code
func GetErrorCodeSeverity(code int) Severity {
	if info, exists := errorCodeRegistry[code]; exists {
		return info.Severity
	}
	return SeverityError
}

// ListErrorCodes returns all registered error codes
func ListErrorCodes() []ErrorCodeInfo {
	codes := make([]ErrorCodeInfo, 0, len(errorCodeRegistry))
	for _, info := range errorCodeRegistry {
		codes = append(codes, info)
	}
	return codes
}
