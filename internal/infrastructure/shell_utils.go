package infrastructure

import (
	"strings"

	"github.com/samber/lo"
)

// shellSpecialChars have meaning to a POSIX shell
const shellSpecialChars = " \t'\"$`\\!*?[](){}|;<>&~#%\n\r"

// ShellEscape quotes s for display in a copy-pasteable command line. It is
// only used for log output; exec.Command receives arguments unquoted.
func ShellEscape(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecialChars) {
		return s
	}
	// Single quotes cannot be escaped inside single quotes: close, emit "'", reopen
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// ShellEscapeCommand renders a binary and its arguments as one log line
func ShellEscapeCommand(binary string, args ...string) string {
	return strings.Join(lo.Map(append([]string{binary}, args...), func(s string, _ int) string {
		return ShellEscape(s)
	}), " ")
}
