// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"carvel.dev/zsyaml/pkg/backend"
	"carvel.dev/zsyaml/pkg/convert"
	"carvel.dev/zsyaml/pkg/directive"
	"carvel.dev/zsyaml/pkg/document"
	"carvel.dev/zsyaml/pkg/nodepath"
)

// KindError prefixes an error with its kind so that users can tell
// failures apart at a glance.
type KindError struct {
	Kind string
	Err  error
}

func NewKindError(err error) *KindError {
	return &KindError{Kind: ErrorKind(err), Err: err}
}

func (e *KindError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Err) }

func (e *KindError) Unwrap() error { return e.Err }

// ErrorKind names the most specific known failure in err's chain.
func ErrorKind(err error) string {
	var (
		unknownFuncErr *directive.UnknownFunctionError
		moduleErr      *directive.ModuleLoadError
		conflictErr    *directive.ConflictError
		recursionErr   *directive.RecursionLimitError
		pathErr        *nodepath.PathError
		orderErr       *convert.SchemaOrderError
		metaErr        *document.MetadataError
		backendErr     *backend.Error
		unsupportedErr *convert.UnsupportedConversionError
		fsPathErr      *fs.PathError
	)

	switch {
	case errors.As(err, &unknownFuncErr):
		return "unknown function"
	case errors.As(err, &moduleErr):
		return "module load"
	case errors.As(err, &conflictErr):
		return "registry conflict"
	case errors.As(err, &recursionErr):
		return "recursion limit"
	case errors.As(err, &pathErr):
		return "path"
	case errors.As(err, &orderErr):
		return "schema order"
	case errors.As(err, &metaErr):
		return "metadata"
	case errors.As(err, &backendErr):
		return "backend"
	case errors.As(err, &unsupportedErr):
		return "usage"
	case errors.Is(err, fs.ErrNotExist), errors.As(err, &fsPathErr):
		return "file"
	default:
		return "conversion"
	}
}
