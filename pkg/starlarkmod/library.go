// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package starlarkmod

import (
	"fmt"
	"time"

	"carvel.dev/zsyaml/pkg/orderedmap"
	"carvel.dev/zsyaml/pkg/version"
	goversion "github.com/hashicorp/go-version"
	"github.com/k14s/starlark-go/starlark"
	"github.com/k14s/starlark-go/starlarkstruct"
)

const threadClockKey = "zsyaml.clock_key"

var (
	ClockAPI = starlark.StringDict{
		"clock": &starlarkstruct.Module{
			Name: "clock",
			Members: starlark.StringDict{
				"today": newBuiltin("clock.today", clockModule{}.Today),
				"now":   newBuiltin("clock.now", clockModule{}.Now),
			},
		},
	}

	VersionAPI = starlark.StringDict{
		"version": &starlarkstruct.Module{
			Name: "version",
			Members: starlark.StringDict{
				"require_at_least": newBuiltin("version.require_at_least", versionModule{}.RequireAtLeast),
			},
		},
	}
)

type builtinFunc func(thread *starlark.Thread, f *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error)

// newBuiltin exposes fn to modules under name. Errors carry the name; a
// panic inside fn surfaces as an error of the calling module.
func newBuiltin(name string, fn builtinFunc) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(thread *starlark.Thread, f *starlark.Builtin,
		args starlark.Tuple, kwargs []starlark.Tuple) (val starlark.Value, resultErr error) {

		defer func() {
			if rec := recover(); rec != nil {
				resultErr = fmt.Errorf("%s: unexpected failure: %v", name, rec)
			}
		}()

		val, err := fn(thread, f, args, kwargs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return val, nil
	})
}

func predeclared() starlark.StringDict {
	result := starlark.StringDict{}
	for _, api := range []starlark.StringDict{ClockAPI, VersionAPI} {
		for k, v := range api {
			result[k] = v
		}
	}
	return result
}

func newThread(name string, now func() time.Time) *starlark.Thread {
	thread := &starlark.Thread{Name: name}
	if now == nil {
		now = time.Now
	}
	thread.SetLocal(threadClockKey, now)
	return thread
}

type clockModule struct{}

func (clockModule) now(thread *starlark.Thread) time.Time {
	now, ok := thread.Local(threadClockKey).(func() time.Time)
	if !ok {
		panic("Expected to find clock associated with thread")
	}
	return now()
}

// Today returns struct(year, month, day).
func (c clockModule) Today(thread *starlark.Thread, f *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if args.Len() != 0 || len(kwargs) != 0 {
		return starlark.None, fmt.Errorf("expected no arguments")
	}

	year, month, day := c.now(thread).Date()

	data := orderedmap.NewMap()
	data.Set("year", starlark.MakeInt(year))
	data.Set("month", starlark.MakeInt(int(month)))
	data.Set("day", starlark.MakeInt(day))
	return NewStruct(data), nil
}

// Now returns the current time as an RFC 3339 string.
func (c clockModule) Now(thread *starlark.Thread, f *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if args.Len() != 0 || len(kwargs) != 0 {
		return starlark.None, fmt.Errorf("expected no arguments")
	}
	return starlark.String(c.now(thread).Format(time.RFC3339)), nil
}

type versionModule struct{}

func (b versionModule) RequireAtLeast(thread *starlark.Thread, f *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if args.Len() != 1 {
		return starlark.None, fmt.Errorf("expected exactly one argument")
	}

	val, err := NewStarlarkValue(args.Index(0)).AsString()
	if err != nil {
		return starlark.None, err
	}

	userConstraint, err := goversion.NewConstraint(">=" + val)
	if err != nil {
		return starlark.None, err
	}

	current, err := goversion.NewVersion(version.Version)
	if err != nil {
		return starlark.None, err
	}

	if !userConstraint.Check(current) {
		return starlark.None, fmt.Errorf("zs-yaml version %s does not meet the minimum required version %s", version.Version, val)
	}

	return starlark.None, nil
}
