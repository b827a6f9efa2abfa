// Package errors provides centralized error handling with component and
// category metadata for structured logging and API error responses.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"runtime"
	"strings"
	"sync"
	"time"
)

// ErrorCategory represents the type of error for better categorization
type ErrorCategory string

// CategorizedError is an interface for errors that can specify their own category
type CategorizedError interface {
	error
	ErrorCategory() ErrorCategory
}

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryFileIO     ErrorCategory = "file-io"
	CategoryDatabase   ErrorCategory = "database"
	CategoryHTTP       ErrorCategory = "http-request"
	CategoryConf       ErrorCategory = "configuration"
	CategoryNotFound   ErrorCategory = "not-found"
	CategoryConflict   ErrorCategory = "conflict"
	CategoryGeneric    ErrorCategory = "generic"

	// Qa-Hub workflow categories
	CategoryCSVParsing ErrorCategory = "csv-parsing"     // CSV/TSV template parsing
	CategoryImport     ErrorCategory = "bulk-import"     // bulk import reconciliation
	CategoryMerge      ErrorCategory = "duplicate-merge" // duplicate detection and merge
	CategorySuiteTree  ErrorCategory = "suite-tree"      // suite hierarchy operations
	CategoryTestRun    ErrorCategory = "test-run"        // test run lifecycle
)

// ComponentUnknown is used when the component cannot be determined.
const ComponentUnknown = "unknown"

// Sentinel errors for CSV parsing; wrap them so callers can use errors.Is
// without depending on exact message text.
var (
	ErrHeaderNotFound        = stderrors.New("no header row containing title and description found")
	ErrRequiredColumnMissing = stderrors.New("required column \"title\" not found in header")
)

// EnhancedError wraps an error with additional context and metadata
type EnhancedError struct {
	Err       error          // Original error
	component string         // Component where error occurred (lazily detected)
	Category  ErrorCategory  // Error category for better grouping
	Context   map[string]any // Additional context data
	Timestamp time.Time      // When the error occurred
	mu        sync.RWMutex   // Protects lazy component detection
	detected  bool           // Whether component has been auto-detected
}

// Error implements the error interface
func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

// Unwrap implements the error unwrapping interface
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is implements error type checking
func (ee *EnhancedError) Is(target error) bool {
	if ee2, ok := target.(*EnhancedError); ok {
		return ee.Category == ee2.Category
	}
	return Is(ee.Err, target)
}

// GetComponent returns the component name, detecting it lazily if needed
func (ee *EnhancedError) GetComponent() string {
	ee.mu.RLock()
	if ee.detected || ee.component != "" {
		component := ee.component
		ee.mu.RUnlock()
		return component
	}
	ee.mu.RUnlock()

	ee.mu.Lock()
	defer ee.mu.Unlock()

	if ee.component == "" && !ee.detected {
		ee.component = detectComponent()
		ee.detected = true
		if ee.component == "" {
			ee.component = ComponentUnknown
		}
	}

	return ee.component
}

// GetCategory returns the error category
func (ee *EnhancedError) GetCategory() string {
	return string(ee.Category)
}

// GetContext returns a copy of the error context
func (ee *EnhancedError) GetContext() map[string]any {
	ee.mu.RLock()
	defer ee.mu.RUnlock()

	if ee.Context == nil {
		return nil
	}

	contextCopy := make(map[string]any, len(ee.Context))
	maps.Copy(contextCopy, ee.Context)
	return contextCopy
}

// GetTimestamp returns when the error occurred
func (ee *EnhancedError) GetTimestamp() time.Time {
	return ee.Timestamp
}

// GetMessage returns the error message
func (ee *EnhancedError) GetMessage() string {
	if ee.Err != nil {
		return ee.Err.Error()
	}
	return ""
}

// ErrorBuilder provides a fluent interface for creating enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New creates a new error with enhanced context
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{
		err: err,
		// context is lazily initialized when needed
	}
}

// Newf creates a new formatted error with enhanced context
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Wrap wraps an existing error with enhanced context
func Wrap(err error) *ErrorBuilder {
	return New(err)
}

// Component sets the component name (auto-detected if not set)
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category for better grouping
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds context data to the error
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Build creates the EnhancedError
func (eb *ErrorBuilder) Build() *EnhancedError {
	ee := &EnhancedError{
		Err:       eb.err,
		component: eb.component,
		Category:  eb.category,
		Context:   eb.context,
		Timestamp: time.Now(),
		detected:  eb.component != "",
	}
	if ee.Category == "" {
		ee.Category = CategoryGeneric
	}
	return ee
}

// Component registry for dynamic component detection
var (
	componentRegistry = make(map[string]string)
	registryMutex     sync.RWMutex
)

// RegisterComponent registers a package path pattern with a component name
func RegisterComponent(packagePattern, componentName string) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	componentRegistry[packagePattern] = componentName
}

func init() {
	RegisterComponent("datastore", "datastore")
	RegisterComponent("conf", "configuration")
	RegisterComponent("csvfile", "csvfile")
	RegisterComponent("similarity", "similarity")
	RegisterComponent("merge", "merge")
	RegisterComponent("suitetree", "suitetree")
	RegisterComponent("importer", "importer")
	RegisterComponent("api", "api")
}

// detectComponent walks the call stack looking for a registered internal
// package name. Returns "" when no frame matches.
func detectComponent() string {
	pcs := make([]uintptr, 12)
	n := runtime.Callers(3, pcs)
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	for {
		frame, more := frames.Next()
		if idx := strings.Index(frame.Function, "/internal/"); idx >= 0 {
			rest := frame.Function[idx+len("/internal/"):]
			pkg, _, _ := strings.Cut(rest, ".")
			if name, ok := componentRegistry[pkg]; ok {
				return name
			}
		}
		if !more {
			break
		}
	}
	return ""
}

// Standard library passthroughs so callers need only one errors import.

// Is reports whether any error in err's tree matches target
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

// Join returns an error that wraps the given errors
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// NewStd creates a standard error without enhancement, for sentinel errors
func NewStd(text string) error {
	return stderrors.New(text)
}
