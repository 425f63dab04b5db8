package templates

import (
	"strconv"
	"strings"
)

// numbered lists prefix0 through prefix{n-1}, comma separated: the type
// parameters of a MemoN and the arguments it passes to combine.
func numbered(prefix string, n int) string {
	names := make([]string, n)
	for i := range names {
		names[i] = prefix + strconv.Itoa(i)
	}
	return strings.Join(names, ", ")
}
