package match

import "fmt"

// invariant panics with msg if cond is false. Invariant violations are
// fatal per spec: the loop limits and structural caps this guards are sized
// so that a legitimate client can never trip them, so a panic here means the
// engine itself is broken, not that a request was malformed.
func invariant(cond bool, msg string, args ...any) {
	if !cond {
		panic("match: invariant violated: " + fmt.Sprintf(msg, args...))
	}
}
