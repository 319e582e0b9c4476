package rules

import (
	"regexp"
	"strings"

	"github.com/raysh454/owaspscan/internal/model"
)

// call is one located function call on a line.
type call struct {
	start int // start of the matched name
	open  int // index of '('
	close int // index of the matching ')'
	name  string
	args  []string
}

// findCall locates the first call matched by nameRe, which must end in
// `\(`. Calls with unbalanced parentheses are ignored.
func findCall(line string, nameRe *regexp.Regexp) (call, bool) {
	loc := nameRe.FindStringIndex(line)
	if loc == nil {
		return call{}, false
	}
	open := loc[1] - 1
	if open < 0 || line[open] != '(' {
		return call{}, false
	}
	closing := matchBracket(line, open)
	if closing < 0 {
		return call{}, false
	}
	return call{
		start: loc[0],
		open:  open,
		close: closing,
		name:  strings.TrimSpace(strings.TrimSuffix(line[loc[0]:open], " ")),
		args:  splitArgs(line[open+1 : closing]),
	}, true
}

// rewriteCall replaces the first call matched by nameRe on every code line
// with build's result. build returns ok=false to leave the line alone.
func rewriteCall(nameRe *regexp.Regexp, build func(c call, lang model.Language) (string, bool)) Fix {
	return func(fragment []string, lang model.Language) []string {
		return mapLines(fragment, func(l string) string {
			c, ok := findCall(l, nameRe)
			if !ok {
				return l
			}
			repl, ok := build(c, lang)
			if !ok {
				return l
			}
			return l[:c.start] + repl + l[c.close+1:]
		})
	}
}

// guardCall inserts a guard statement above the first code line that
// contains a call matched by nameRe. The guard is built from the call's
// first argument.
func guardCall(nameRe *regexp.Regexp, build func(arg string, lang model.Language) (string, bool)) Fix {
	return insertBefore(func(line string, lang model.Language) (string, bool) {
		c, ok := findCall(line, nameRe)
		if !ok || len(c.args) == 0 || c.args[0] == "" {
			return "", false
		}
		return build(c.args[0], lang)
	})
}

// wrapFirstArg rewrites the first argument of a matched call in place.
func wrapFirstArg(nameRe *regexp.Regexp, wrap func(arg string, lang model.Language) (string, bool)) Fix {
	return func(fragment []string, lang model.Language) []string {
		return mapLines(fragment, func(l string) string {
			c, ok := findCall(l, nameRe)
			if !ok || len(c.args) == 0 || c.args[0] == "" {
				return l
			}
			inner := l[c.open+1 : c.close]
			idx := strings.Index(inner, c.args[0])
			if idx < 0 {
				return l
			}
			wrapped, ok := wrap(c.args[0], lang)
			if !ok {
				return l
			}
			start := c.open + 1 + idx
			return l[:start] + wrapped + l[start+len(c.args[0]):]
		})
	}
}
