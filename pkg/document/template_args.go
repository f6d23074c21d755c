// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"fmt"
	"regexp"

	"carvel.dev/zsyaml/pkg/orderedmap"
)

var templateArgPattern = regexp.MustCompile(`\$(?:(\$)|([_a-zA-Z][_a-zA-Z0-9]*)|\{([_a-zA-Z][_a-zA-Z0-9]*)\})`)

// Substitute replaces $name and ${name} with values from args. Unknown
// names are left as written; $$ becomes a literal $.
func Substitute(content string, args *orderedmap.Map) string {
	return templateArgPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := templateArgPattern.FindStringSubmatch(match)
		if groups[1] != "" {
			return "$"
		}
		name := groups[2]
		if name == "" {
			name = groups[3]
		}
		val, found := args.Get(name)
		if !found {
			return match
		}
		if val == nil {
			return "null"
		}
		return fmt.Sprintf("%v", val)
	})
}
