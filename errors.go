package querystore

import (
	"errors"
	"fmt"
)

// Sentinel errors for common storage operations.
var (
	// Connection errors
	ErrConnectionFailed = errors.New("connection failed")
	ErrConnectionClosed = errors.New("connection closed")

	// Driver errors
	ErrDriverNotFound = errors.New("driver not found")

	// Transaction errors
	ErrTransactionFailed = errors.New("transaction failed")

	// Record errors
	ErrRecordNotFound = errors.New("record not found")
	ErrRecordExists   = errors.New("record already exists")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ConnectionError represents connection-related errors.
type ConnectionError struct {
	Operation string
	Driver    string
	Host      string
	Err       error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error during %s with %s driver at %s: %v",
		e.Operation, e.Driver, e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// DriverError represents driver-related errors.
type DriverError struct {
	Driver    string
	Operation string
	Err       error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("driver error with %s during %s: %v",
		e.Driver, e.Operation, e.Err)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

// TransactionError represents failures of the transaction machinery itself
// (begin, commit). Errors returned by the unit of work pass through
// unwrapped.
type TransactionError struct {
	Operation string
	Err       error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction error during %s: %v", e.Operation, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// QueryError represents query execution errors.
type QueryError struct {
	Operation string
	Table     string
	Query     string
	Args      []any
	Err       error
}

func (e *QueryError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("query error during %s on table %s: %v",
			e.Operation, e.Table, e.Err)
	}
	return fmt.Sprintf("query error during %s: %v", e.Operation, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// RecordNotFoundError is the not-found signal for primary-key operations.
type RecordNotFoundError struct {
	Table string
	Key   string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("record not found in table %s with key %s", e.Table, e.Key)
}

func (e *RecordNotFoundError) Is(target error) bool {
	return target == ErrRecordNotFound
}

// TypeGuardError reports an entity of the wrong dynamic type passed to a
// repository write operation.
type TypeGuardError struct {
	Expected string
	Actual   string
}

func (e *TypeGuardError) Error() string {
	return fmt.Sprintf("type guard: expected entity of type %s, got %s",
		e.Expected, e.Actual)
}

// ValidationError represents malformed input: a bad predicate payload arity
// or an out-of-range pageable.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ConfigError represents configuration errors.
type ConfigError struct {
	Field   string
	Value   any
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Constructor functions for custom errors

// NewConnectionError creates a new connection error.
func NewConnectionError(err error, operation, driver, host string) *ConnectionError {
	return &ConnectionError{
		Operation: operation,
		Driver:    driver,
		Host:      host,
		Err:       err,
	}
}

// NewDriverError creates a new driver error.
func NewDriverError(err error, driver, operation string) *DriverError {
	return &DriverError{
		Driver:    driver,
		Operation: operation,
		Err:       err,
	}
}

// NewTransactionError creates a new transaction error.
func NewTransactionError(err error, operation string) *TransactionError {
	return &TransactionError{
		Operation: operation,
		Err:       err,
	}
}

// NewQueryError creates a new query error.
func NewQueryError(err error, operation, table, query string, args []any) *QueryError {
	return &QueryError{
		Operation: operation,
		Table:     table,
		Query:     query,
		Args:      args,
		Err:       err,
	}
}

// NewRecordNotFoundError creates a new record not found error.
func NewRecordNotFoundError(table, key string) *RecordNotFoundError {
	return &RecordNotFoundError{
		Table: table,
		Key:   key,
	}
}

// NewTypeGuardError creates a new type guard error.
func NewTypeGuardError(expected, actual string) *TypeGuardError {
	return &TypeGuardError{
		Expected: expected,
		Actual:   actual,
	}
}

// NewValidationError creates a new validation error.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		Message: message,
	}
}

// NewValidationErrorForField creates a new validation error for a specific field.
func NewValidationErrorForField(field string, value any, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewConfigError creates a new config error.
func NewConfigError(message string) *ConfigError {
	return &ConfigError{
		Message: message,
	}
}

// NewConfigErrorForField creates a new config error for a specific field.
func NewConfigErrorForField(field string, value any, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrapper functions for adding context to errors

// WrapConnectionError wraps an error as a connection error.
func WrapConnectionError(err error, operation, driver, host string) error {
	if err == nil {
		return nil
	}
	return NewConnectionError(err, operation, driver, host)
}

// WrapDriverError wraps an error as a driver error.
func WrapDriverError(err error, driver, operation string) error {
	if err == nil {
		return nil
	}
	return NewDriverError(err, driver, operation)
}

// WrapTransactionError wraps an error as a transaction error.
func WrapTransactionError(err error, operation string) error {
	if err == nil {
		return nil
	}
	return NewTransactionError(err, operation)
}

// WrapQueryError wraps an error as a query error.
func WrapQueryError(err error, operation, table, query string, args []any) error {
	if err == nil {
		return nil
	}
	return NewQueryError(err, operation, table, query, args)
}

// Error checking functions

// IsConnectionError checks if an error is a connection error.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// IsDriverError checks if an error is a driver error.
func IsDriverError(err error) bool {
	var driverErr *DriverError
	return errors.As(err, &driverErr)
}

// IsTransactionError checks if an error is a transaction error.
func IsTransactionError(err error) bool {
	var txErr *TransactionError
	return errors.As(err, &txErr)
}

// IsQueryError checks if an error is a query error.
func IsQueryError(err error) bool {
	var queryErr *QueryError
	return errors.As(err, &queryErr)
}

// IsNotFound checks if an error is the record not-found signal.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrRecordNotFound) {
		return true
	}
	var notFoundErr *RecordNotFoundError
	return errors.As(err, &notFoundErr)
}

// IsTypeGuardError checks if an error is a type guard error.
func IsTypeGuardError(err error) bool {
	var guardErr *TypeGuardError
	return errors.As(err, &guardErr)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsConfigError checks if an error is a config error.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}
