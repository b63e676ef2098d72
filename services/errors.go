package services

// RuleError is a rejected operation: an authorization failure, an invalid
// transition, an unmet precondition or a validation failure. Controllers map
// the code to an HTTP status; the message names the violated rule.
type RuleError struct {
	Code    string
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

// Rule error codes used across the services.
const (
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeGateClosed         = "MATERIALS_GATE_CLOSED"
	CodeNotApproved        = "NOT_APPROVED"
	CodeStockShortfall     = "STOCK_SHORTFALL"
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeMeasurementsLocked = "MEASUREMENTS_LOCKED"
	CodeQCIncomplete       = "QC_INCOMPLETE"
	CodeExternalService    = "EXTERNAL_SERVICE_ERROR"
)

func forbidden(message string) *RuleError {
	return &RuleError{Code: CodeForbidden, Message: message}
}

func validation(message string) *RuleError {
	return &RuleError{Code: CodeValidation, Message: message}
}

func notFound(message string) *RuleError {
	return &RuleError{Code: CodeNotFound, Message: message}
}
