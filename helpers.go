package wireplan

import (
	"regexp"
	"strings"
)

// typeRefPattern accepts an optional pointer/slice prefix, an optional import path and an identifier.
var typeRefPattern = regexp.MustCompile(`^(\*|\[\])*([A-Za-z0-9_\-~.]+(/[A-Za-z0-9_\-~.]+)*\.)?[A-Za-z_][A-Za-z0-9_]*$`)

func validTypeRef(s string) bool {
	return typeRefPattern.MatchString(s)
}

// Family returns the import path of t, or "" for predeclared and unqualified names.
func (t TypeRef) Family() string {
	s := strings.TrimLeft(string(t), "*[]")
	slash := strings.LastIndex(s, "/")
	dot := strings.LastIndex(s, ".")
	if dot <= slash {
		return emptyString
	}
	return s[:dot]
}

// Short returns the identifier part of t, without import path or prefixes.
func (t TypeRef) Short() string {
	s := strings.TrimLeft(string(t), "*[]")
	if dot := strings.LastIndex(s, "."); dot >= 0 && dot > strings.LastIndex(s, "/") {
		return s[dot+1:]
	}
	return s
}

// joinPath renders keys the same way cycle errors do: "a -> b -> c".
func joinPath(keys []BeanKey) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, pathSep)
}

func lowerFirst(s string) string {
	if s == emptyString {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
