// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package directive

import (
	"path/filepath"

	"carvel.dev/zsyaml/pkg/nodepath"
)

const DefaultMaxDepth = 32

// Context is threaded through every function call. A new Context is
// derived for each node and for each included file; none is shared
// across conversions.
type Context struct {
	// File is the document whose nodes are being resolved.
	File string
	// BaseDir anchors relative file references made by functions.
	BaseDir string
	// Depth counts nested file inclusions.
	Depth    int
	MaxDepth int
	// Path is the node being resolved, relative to File's data root.
	Path nodepath.Path
	// Source is the decoded tree when converting binary/text back to a
	// document; nil otherwise.
	Source interface{}

	resolver *Resolver
	debugf   func(string, ...interface{})
}

type ContextOpts struct {
	MaxDepth int
	Source   interface{}
	Debugf   func(string, ...interface{})
}

func (c *Context) Resolver() *Resolver { return c.resolver }

// Resolve resolves node as if it were located at the current path.
func (c *Context) Resolve(node interface{}) (interface{}, error) {
	return c.resolver.resolve(c, node)
}

// RelativePath makes path absolute against BaseDir.
func (c *Context) RelativePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(c.BaseDir, path)
}

// Include derives the context used to resolve content loaded from file
// (already made absolute). Exceeding MaxDepth is a hard failure since it
// is the only guard against files that include themselves.
func (c *Context) Include(file string) (*Context, error) {
	depth := c.Depth + 1
	if depth > c.MaxDepth {
		return nil, &RecursionLimitError{File: file, Depth: c.MaxDepth}
	}
	c.Debugf("include: %s (depth %d)\n", file, depth)

	return &Context{
		File:     file,
		BaseDir:  filepath.Dir(file),
		Depth:    depth,
		MaxDepth: c.MaxDepth,
		Path:     nodepath.Root,
		Source:   c.Source,
		resolver: c.resolver,
		debugf:   c.debugf,
	}, nil
}

func (c *Context) WithPath(path nodepath.Path) *Context {
	copied := *c
	copied.Path = path
	return &copied
}

func (c *Context) Debugf(str string, args ...interface{}) {
	if c.debugf != nil {
		c.debugf(str, args...)
	}
}
