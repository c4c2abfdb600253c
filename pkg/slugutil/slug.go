package slugutil

import (
	"fmt"

	"github.com/gosimple/slug"
)

// Make derives a URL-safe slug from the given name
func Make(name string) string {
	return slug.Make(name)
}

// MakeUnique derives a slug from name and, when the base slug is already taken,
// appends the first free numeric suffix ("-2", "-3", ...). The taken callback
// reports whether a candidate slug is already in use.
func MakeUnique(name string, taken func(string) bool) string {
	base := slug.Make(name)
	candidate := base
	for n := 2; taken(candidate); n++ {
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return candidate
}
