package mapping

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMappingNotFound is the shared sentinel for "no mapping rule exists".
// Call sites use errors.Is to distinguish it from rules that exist but fail
// to evaluate.
var ErrMappingNotFound = errors.New("no mapping rule defined")

// TokenizerError reports a failed tokenizer mapping.
type TokenizerError struct {
	Name string
	Err  error
}

func (e *TokenizerError) Error() string {
	return fmt.Sprintf("tokenizer %q: %v", e.Name, e.Err)
}

func (e *TokenizerError) Unwrap() error { return e.Err }

// FilterError reports a failed token-filter mapping.
type FilterError struct {
	Name string
	Err  error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %q: %v", e.Name, e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }

// CharFilterError reports a failed char-filter mapping.
type CharFilterError struct {
	Name string
	Err  error
}

func (e *CharFilterError) Error() string {
	return fmt.Sprintf("char filter %q: %v", e.Name, e.Err)
}

func (e *CharFilterError) Unwrap() error { return e.Err }

// AnalyzerError aggregates the per-category failures of one analyzer role.
// Each sub-error is nil when that category mapped cleanly; at least one is
// non-nil.
type AnalyzerError struct {
	Name       string
	Tokenizer  error
	Filter     error
	CharFilter error
}

func (e *AnalyzerError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "analyzer %q failed", e.Name)
	if e.Tokenizer != nil {
		fmt.Fprintf(&sb, " - tokenizer: %v", e.Tokenizer)
	}
	if e.Filter != nil {
		fmt.Fprintf(&sb, " - filter: %v", e.Filter)
	}
	if e.CharFilter != nil {
		fmt.Fprintf(&sb, " - char filter: %v", e.CharFilter)
	}
	return sb.String()
}

// FieldTypeError reports a failed field-type mapping. Err is typically an
// *AnalyzerError.
type FieldTypeError struct {
	Name string
	Err  error
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("field type %q: %v", e.Name, e.Err)
}

func (e *FieldTypeError) Unwrap() error { return e.Err }

// FieldError reports a failed field mapping.
type FieldError struct {
	Name      string
	FieldType string
	Err       error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q (type %q): %v", e.Name, e.FieldType, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// DynamicFieldError reports a failed dynamic-field mapping.
type DynamicFieldError struct {
	Pattern   string
	FieldType string
	Err       error
}

func (e *DynamicFieldError) Error() string {
	return fmt.Sprintf("dynamic field %q (type %q): %v", e.Pattern, e.FieldType, e.Err)
}

func (e *DynamicFieldError) Unwrap() error { return e.Err }

// CopyFieldError reports a failed copy-field mapping.
type CopyFieldError struct {
	Source string
	Dest   string
	Err    error
}

func (e *CopyFieldError) Error() string {
	return fmt.Sprintf("copy field %s -> %s: %v", e.Source, e.Dest, e.Err)
}

func (e *CopyFieldError) Unwrap() error { return e.Err }
