package rules

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/raysh454/owaspscan/internal/model"
)

// sqlStatement recognises SQL inside the content of one string literal.
var sqlStatement = regexp.MustCompile(`(?i)\b(select\s.+\sfrom|insert\s+into|update\s+\w+\s+set|delete\s+from)\b`)

var (
	fstringField   = regexp.MustCompile(`\{([^{}]+)\}`)
	templateField  = regexp.MustCompile(`\$\{([^{}]+)\}`)
	phpInterpolate = regexp.MustCompile(`\{?(\$[A-Za-z_]\w*(?:->\w+|\[[^\]]*\])*)\}?`)
	percentVerb    = regexp.MustCompile(`%[sdifr]`)
	formatField    = regexp.MustCompile(`\{[^{}]*\}`)
)

const sqlNote = "values are bound as query parameters instead of being spliced into the SQL text."

type literal struct {
	start, end int // end is exclusive and includes the closing quote
	quote      byte
	content    string
}

// scanLiterals lists the quoted string literals of a line. An unterminated
// literal ends the scan.
func scanLiterals(line string) []literal {
	var out []literal
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c != '"' && c != '\'' && c != '`' {
			continue
		}
		j := i + 1
		for j < len(line) && line[j] != c {
			if line[j] == '\\' {
				j++
			}
			j++
		}
		if j >= len(line) {
			break
		}
		out = append(out, literal{start: i, end: j + 1, quote: c, content: line[i+1 : j]})
		i = j
	}
	return out
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

// matchBracket returns the index of the bracket closing s[i], or -1.
func matchBracket(s string, i int) int {
	open := s[i]
	closing := byte(')')
	if open == '[' {
		closing = ']'
	}
	depth := 0
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '"', '\'':
			q := s[j]
			for j++; j < len(s) && s[j] != q; j++ {
				if s[j] == '\\' {
					j++
				}
			}
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// parseOperand reads an identifier expression such as user.id, $row['id'],
// req.query.get("id") or $obj->name starting at i. In PHP '.' is the
// concatenation operator, so member access is '->' only.
func parseOperand(s string, i int, php bool) (string, int) {
	start := i
loop:
	for i < len(s) {
		c := s[i]
		switch {
		case isIdentByte(c) || c == '$':
			i++
		case c == '.' && !php:
			i++
		case c == '-' && php && i+1 < len(s) && s[i+1] == '>':
			i += 2
		case c == '(' || c == '[':
			j := matchBracket(s, i)
			if j < 0 {
				return "", start
			}
			i = j + 1
		default:
			break loop
		}
	}
	expr := s[start:i]
	if expr == "" || !(isIdentByte(expr[0]) || expr[0] == '$') {
		return "", start
	}
	return expr, i
}

// splitArgs splits a comma-separated argument list at the top level.
func splitArgs(s string) []string {
	var out []string
	depth := 0
	var quote byte
	last := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == ',' && depth == 0:
			out = append(out, strings.TrimSpace(s[last:i]))
			last = i + 1
		}
	}
	if tail := strings.TrimSpace(s[last:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

func placeholder(lang model.Language) string {
	if lang == model.LanguagePython {
		return "%s"
	}
	return "?"
}

// sqlRewrite is a located SQL expression and its parameterized form.
type sqlRewrite struct {
	start, end int
	quote      byte
	sql        string
	args       []string
}

// findConcatenation locates "SQL" + expr (+ "SQL" ...) chains. PHP's '.'
// operator is accepted when php is set.
func findConcatenation(line string, lang model.Language) (sqlRewrite, bool) {
	php := lang == model.LanguagePHP
	ph := placeholder(lang)
	for _, lit := range scanLiterals(line) {
		if lit.quote == '`' || !sqlStatement.MatchString(lit.content) {
			continue
		}
		if lit.start > 0 && (line[lit.start-1] == 'f' || line[lit.start-1] == 'F') {
			continue
		}
		var sql strings.Builder
		sql.WriteString(lit.content)
		var args []string
		end := lit.end
		for {
			p := skipSpaces(line, end)
			if p >= len(line) {
				break
			}
			op := line[p]
			if op != '+' && !(php && op == '.') {
				break
			}
			if p+1 < len(line) && (line[p+1] == '=' || line[p+1] == op) {
				break
			}
			p = skipSpaces(line, p+1)
			if p < len(line) && (line[p] == '"' || line[p] == '\'') {
				next, ok := literalAt(line, p)
				if !ok {
					break
				}
				sql.WriteString(next.content)
				end = next.end
				continue
			}
			expr, e := parseOperand(line, p, php)
			if expr == "" {
				break
			}
			sql.WriteString(ph)
			args = append(args, expr)
			end = e
		}
		if len(args) == 0 {
			continue
		}
		return sqlRewrite{start: lit.start, end: end, quote: lit.quote, sql: unquotePlaceholders(sql.String(), ph), args: args}, true
	}
	return sqlRewrite{}, false
}

func literalAt(line string, p int) (literal, bool) {
	lits := scanLiterals(line[p:])
	if len(lits) == 0 || lits[0].start != 0 {
		return literal{}, false
	}
	l := lits[0]
	l.start += p
	l.end += p
	return l, true
}

// findInterpolation locates SQL built by f-strings, template literals,
// PHP "$var" interpolation, Python % formatting and str.format.
func findInterpolation(line string, lang model.Language) (sqlRewrite, bool) {
	ph := placeholder(lang)
	for _, lit := range scanLiterals(line) {
		if !sqlStatement.MatchString(lit.content) {
			continue
		}
		rw := sqlRewrite{start: lit.start, end: lit.end, quote: lit.quote}
		collect := func(re *regexp.Regexp, group int) string {
			return re.ReplaceAllStringFunc(lit.content, func(m string) string {
				sub := re.FindStringSubmatch(m)
				expr := strings.TrimSpace(sub[group])
				if i := strings.IndexAny(expr, "!:"); i > 0 && lit.quote != '`' && expr[0] != '$' {
					expr = strings.TrimSpace(expr[:i])
				}
				rw.args = append(rw.args, expr)
				return ph
			})
		}

		switch {
		case lit.start > 0 && (line[lit.start-1] == 'f' || line[lit.start-1] == 'F') && fstringField.MatchString(lit.content):
			rw.start--
			rw.sql = collect(fstringField, 1)
		case lit.quote == '`' && templateField.MatchString(lit.content):
			rw.sql = collect(templateField, 1)
		case lit.quote == '"' && (lang == model.LanguagePHP || lang == model.LanguageGeneral) && phpInterpolate.MatchString(lit.content):
			rw.sql = collect(phpInterpolate, 1)
		default:
			rest := line[lit.end:]
			p := skipSpaces(rest, 0)
			switch {
			case percentVerb.MatchString(lit.content) && p < len(rest) && rest[p] == '%':
				q := skipSpaces(rest, p+1)
				var args []string
				end := q
				if q < len(rest) && rest[q] == '(' {
					j := matchBracket(rest, q)
					if j < 0 {
						continue
					}
					args = splitArgs(rest[q+1 : j])
					end = j + 1
				} else {
					expr, e := parseOperand(rest, q, false)
					if expr == "" {
						continue
					}
					args = []string{expr}
					end = e
				}
				rw.sql = percentVerb.ReplaceAllString(lit.content, ph)
				rw.args = args
				rw.end = lit.end + end
			case strings.HasPrefix(rest, ".format("):
				open := len(".format")
				j := matchBracket(rest, open)
				if j < 0 {
					continue
				}
				rw.args = splitArgs(rest[open+1 : j])
				rw.sql = formatField.ReplaceAllString(lit.content, ph)
				rw.end = lit.end + j + 1
			default:
				continue
			}
		}
		if len(rw.args) == 0 {
			continue
		}
		rw.sql = unquotePlaceholders(rw.sql, ph)
		if rw.quote == '`' {
			rw.quote = '"'
		}
		return rw, true
	}
	return sqlRewrite{}, false
}

func unquotePlaceholders(sql, ph string) string {
	sql = strings.ReplaceAll(sql, "'"+ph+"'", ph)
	return strings.ReplaceAll(sql, `"`+ph+`"`, ph)
}

func chooseQuote(q byte, sql string) string {
	if q == '`' {
		q = '"'
	}
	if strings.IndexByte(sql, q) >= 0 {
		if q == '"' {
			q = '\''
		} else {
			q = '"'
		}
	}
	return string(q)
}

func paramsLiteral(args []string, lang model.Language) string {
	joined := strings.Join(args, ", ")
	switch lang {
	case model.LanguagePython:
		if len(args) == 1 {
			return "(" + joined + ",)"
		}
		return "(" + joined + ")"
	case model.LanguageJava:
		return "new Object[]{" + joined + "}"
	default:
		return "[" + joined + "]"
	}
}

func paramLines(args []string, lang model.Language) []string {
	switch lang {
	case model.LanguagePython:
		return []string{"params = " + paramsLiteral(args, lang)}
	case model.LanguageJavaScript:
		return []string{"const params = " + paramsLiteral(args, lang) + ";"}
	case model.LanguagePHP:
		return []string{"$params = " + paramsLiteral(args, lang) + ";"}
	case model.LanguageJava:
		lines := make([]string, 0, len(args))
		for i, a := range args {
			lines = append(lines, "ps.setObject("+strconv.Itoa(i+1)+", "+a+");")
		}
		return lines
	case model.LanguageC:
		return []string{lang.Comment("bind parameters in order: " + strings.Join(args, ", "))}
	default:
		return []string{"params = " + paramsLiteral(args, lang)}
	}
}

// bindParameters splices the parameterized literal into line. Inside a
// call the parameters become the next argument; otherwise they are
// declared on the following line(s).
func bindParameters(line string, rw sqlRewrite, lang model.Language) []string {
	indent := indentOf(line)
	q := chooseQuote(rw.quote, rw.sql)
	head := line[:rw.start] + q + rw.sql + q
	tail := line[rw.end:]

	noteText := sqlNote
	if lang == model.LanguageJava {
		noteText = "prepare the statement with connection.prepareStatement(sql) and bind each value; " + sqlNote
	}
	out := []string{note(lang, indent, noteText)}

	before := strings.TrimRight(line[:rw.start], " \t")
	inCall := strings.HasSuffix(before, "(") && lang != model.LanguageJava && lang != model.LanguageC
	if inCall {
		return append(out, head+", "+paramsLiteral(rw.args, lang)+tail)
	}
	out = append(out, head+tail)
	for _, l := range paramLines(rw.args, lang) {
		out = append(out, indent+l)
	}
	return out
}

func sqlFix(find func(string, model.Language) (sqlRewrite, bool)) Fix {
	return func(fragment []string, lang model.Language) []string {
		out := make([]string, 0, len(fragment)+2)
		changed := false
		for _, l := range fragment {
			if changed || isNote(l) {
				out = append(out, l)
				continue
			}
			rw, ok := find(l, lang)
			if !ok {
				out = append(out, l)
				continue
			}
			out = append(out, bindParameters(l, rw, lang)...)
			changed = true
		}
		return out
	}
}
