// Package erro annotates errors with the function, file and line of the
// call site, so a failure surfaced at the top of the render pipeline still
// says where it happened.
package erro

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
)

const null = string(rune(0))

// Wrap returns err annotated with the function/file/line of the caller.
// A nil err stays nil.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	pc, filename, linenr, _ := runtime.Caller(1)
	strs := strings.Split(runtime.FuncForPC(pc).Name(), "/")
	function := strs[len(strs)-1]
	return fmt.Errorf("->"+null+" Error in %s:%d (%s) %w", filename, linenr, function, err)
}

// Dump writes the formatted error string (each wrapped error on its own
// line) into w.
func Dump(w io.Writer, err error) {
	pc, filename, linenr, _ := runtime.Caller(1)
	strs := strings.Split(runtime.FuncForPC(pc).Name(), "/")
	function := strs[len(strs)-1]
	err = fmt.Errorf("Error in %s:%d (%s) %w", filename, linenr, function, err)
	fmtedErr := strings.Replace(err.Error(), " ->"+null+" ", "\n\n", -1)
	fmt.Fprintln(w, fmtedErr)
}

// Sdump returns the formatted error string (each wrapped error on its own
// line).
func Sdump(err error) string {
	pc, filename, linenr, _ := runtime.Caller(2)
	strs := strings.Split(runtime.FuncForPC(pc).Name(), "/")
	function := strs[len(strs)-1]
	err = fmt.Errorf("Error in %s:%d (%s) %w", filename, linenr, function, err)
	return strings.Replace(err.Error(), " ->"+null+" ", "\n\n", -1)
}

// Is reports whether any error in err's chain matches any of the targets.
// Exactly the same as errors.Is, but variadic.
func Is(err error, target error, targets ...error) bool {
	targets = append([]error{target}, targets...)
	for _, e := range targets {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
