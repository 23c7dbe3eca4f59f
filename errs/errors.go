// Package errs holds the error taxonomy shared by the schema, ddl and
// lifecycle packages. Every error is a go-errors *Error carrying a stable
// text code so callers can branch on it after any amount of wrapping.
package errs

import (
	"fmt"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes used by the taxonomy.
const (
	CodeCollectionNotFound       = "COLLECTION_NOT_FOUND"
	CodeInvalidSchemaDescription = "INVALID_SCHEMA_DESCRIPTION"
	CodeForbidden                = "FORBIDDEN"
	CodeAdapterExecution         = "ADAPTER_EXECUTION_FAILURE"
	CodeMissingRelationTarget    = "MISSING_RELATION_TARGET"
)

// CollectionNotFound reports a collection the schema source does not know.
func CollectionNotFound(name string) *goerrors.Error {
	return goerrors.New(fmt.Sprintf("collection %q not found", name), goerrors.CategoryNotFound).
		WithTextCode(CodeCollectionNotFound).
		WithMetadata(map[string]any{"collection": name})
}

// InvalidSchemaDescription converts an ozzo validation result into the
// aggregated description error. Every offending field stays listed in
// ValidationErrors.
func InvalidSchemaDescription(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	e := goerrors.FromOzzoValidation(err, "invalid schema description: "+err.Error())
	return e.WithTextCode(CodeInvalidSchemaDescription)
}

// Forbidden reports an authorization gate rejecting an operation.
func Forbidden(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryAuthz).
		WithTextCode(CodeForbidden).
		WithCode(403)
}

// AdapterExecution wraps a schema source failure with the operation and
// collection it happened on. The source error is kept intact.
func AdapterExecution(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	msg := op
	if collection != "" {
		msg = op + " " + collection
	}
	return &goerrors.Error{
		Category: goerrors.CategoryExternal,
		TextCode: CodeAdapterExecution,
		Message:  msg,
		Source:   err,
		Metadata: map[string]any{
			"operation":  op,
			"collection": collection,
		},
		Severity: goerrors.SeverityError,
	}
}

// MissingRelationTarget reports a translation style interface whose
// languages table or column is not configured.
func MissingRelationTarget(field, option string) *goerrors.Error {
	return goerrors.New(
		fmt.Sprintf("translations language table not defined for %s (%s)", field, option),
		goerrors.CategoryBadInput,
	).WithTextCode(CodeMissingRelationTarget).
		WithMetadata(map[string]any{"field": field, "option": option})
}

// IsCollectionNotFound reports whether err carries CodeCollectionNotFound.
func IsCollectionNotFound(err error) bool { return hasTextCode(err, CodeCollectionNotFound) }

// IsInvalidSchemaDescription reports whether err carries CodeInvalidSchemaDescription.
func IsInvalidSchemaDescription(err error) bool {
	return hasTextCode(err, CodeInvalidSchemaDescription)
}

// IsForbidden reports whether err carries CodeForbidden.
func IsForbidden(err error) bool { return hasTextCode(err, CodeForbidden) }

// IsAdapterExecution reports whether err carries CodeAdapterExecution.
func IsAdapterExecution(err error) bool { return hasTextCode(err, CodeAdapterExecution) }

// IsMissingRelationTarget reports whether err carries CodeMissingRelationTarget.
func IsMissingRelationTarget(err error) bool { return hasTextCode(err, CodeMissingRelationTarget) }

// Fields returns the sorted, de-duplicated offending field keys of an
// InvalidSchemaDescription error.
func Fields(err error) []string {
	verrs, ok := goerrors.GetValidationErrors(err)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(verrs))
	seen := map[string]bool{}
	for _, fe := range verrs {
		name := fe.Field
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[:i]
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func hasTextCode(err error, code string) bool {
	for err != nil {
		var e *goerrors.Error
		if !goerrors.As(err, &e) {
			return false
		}
		if e.TextCode == code {
			return true
		}
		err = e.Source
	}
	return false
}
