package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInsufficientData     ErrorCode = 106
	ErrCodeInvalidType          ErrorCode = 107
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidVersion       ErrorCode = 110
	ErrCodeInvalidSignal        ErrorCode = 120

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound    ErrorCode = 300
	ErrCodeIndicatorCalculation ErrorCode = 301

	// Strategy errors (400-499)
	ErrCodeStrategyNotLoaded    ErrorCode = 400
	ErrCodeStrategyConfigError  ErrorCode = 401
	ErrCodeStrategyRuntimeError ErrorCode = 402

	// Backtest errors (600-699)
	ErrCodeBacktestConfigError   ErrorCode = 602
	ErrCodeBacktestInvalidSeries ErrorCode = 609
	ErrCodeBacktestCancelled     ErrorCode = 610

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800

	// Parameter search errors (900-999)
	ErrCodeSearchTimeout      ErrorCode = 900
	ErrCodeSearchUnitPanic    ErrorCode = 901
	ErrCodeSearchNoCandidates ErrorCode = 902

	// Report errors (1000-1099)
	ErrCodeReportWriteFailed     ErrorCode = 1000
	ErrCodeReportReadFailed      ErrorCode = 1001
	ErrCodeReportVersionMismatch ErrorCode = 1002
)
