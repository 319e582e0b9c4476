package rules

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/raysh454/owaspscan/internal/model"
)

// sqlVerb is the case-insensitive statement shape shared by the SQL rules.
const sqlVerb = `(?i:select\s[^"'` + "`" + `]+\sfrom|insert\s+into|update\s+\w+\s+set|delete\s+from)`

var (
	osSystemCall   = regexp.MustCompile(`\bos\.(system|popen)\s*\(`)
	subprocessCall = regexp.MustCompile(`\bsubprocess\.(call|run|Popen|check_output|check_call)\s*\(`)
	jsExecCall     = regexp.MustCompile(`\b(exec|execSync)\s*\(`)
	shellTrue      = regexp.MustCompile(`\bshell\s*=\s*True\b`)
	phpConcatVar   = regexp.MustCompile(`\.\s*(\$\w+(?:\[[^\]]*\]|->\w+)*)`)
	jsEvalCall     = regexp.MustCompile(`\beval\s*\(`)
	mongoQueryCall = regexp.MustCompile(`\.(find|findOne|findOneAndUpdate|findOneAndDelete|updateOne|updateMany|deleteOne|deleteMany|countDocuments)\s*\(`)
	cssExpression  = regexp.MustCompile(`(?i):\s*expression\s*\(|behavior\s*:\s*url\s*\(|-moz-binding\s*:`)
)

// inQuotes expands tmpl once for double and once for single quotes. In
// tmpl {q} is the quote, {n} any other character and {sql} the statement
// shape.
func inQuotes(tmpl string) string {
	expand := func(q string) string {
		return strings.NewReplacer("{q}", q, "{n}", "[^"+q+"]", "{sql}", sqlVerb).Replace(tmpl)
	}
	return expand(`"`) + "|" + expand(`'`)
}

// commandArgv splits an expression such as "ping -c 1 " + host into the
// argv form ["ping", "-c", "1", host]. ok is false when expr is anything
// other than a chain of string literals and plain operands.
func commandArgv(expr string, php bool) ([]string, bool) {
	var argv []string
	i := 0
	for {
		i = skipSpaces(expr, i)
		if i >= len(expr) {
			return nil, false
		}
		if c := expr[i]; c == '"' || c == '\'' {
			lit, ok := literalAt(expr, i)
			if !ok {
				return nil, false
			}
			for _, f := range strings.Fields(lit.content) {
				argv = append(argv, strconv.Quote(f))
			}
			i = lit.end
		} else {
			operand, e := parseOperand(expr, i, php)
			if operand == "" {
				return nil, false
			}
			argv = append(argv, operand)
			i = e
		}
		i = skipSpaces(expr, i)
		if i >= len(expr) {
			break
		}
		if expr[i] != '+' && !(php && expr[i] == '.') {
			return nil, false
		}
		i++
	}
	if len(argv) < 2 {
		return nil, false
	}
	return argv, true
}

func injectionRules() []Rule {
	return []Rule{
		{
			ID:       "sql-string-concatenation",
			Category: model.Injection,
			Name:     "SQL Injection via String Concatenation",
			Severity: model.SeverityCritical,
			Matcher: lineRule(
				inQuotes(`{q}{n}*\b{sql}\b{n}*{q}\s*(\+\s*[\w$(]|\.\s*[$(]|\.\s+\w)`),
			),
			Description:    "A SQL statement is assembled by concatenating a variable into the query text, so attacker-controlled input can change the query structure.",
			Recommendation: recommend("Use parameterized queries (prepared statements) and pass values separately from the SQL text."),
			Fix: firstOf(
				sqlFix(findConcatenation),
				annotate("use a parameterized query and bind this value instead of concatenating it."),
			),
		},
		{
			ID:       "sql-string-interpolation",
			Category: model.Injection,
			Name:     "SQL Injection via String Interpolation",
			Severity: model.SeverityCritical,
			Matcher: lineRule(
				inQuotes(`\b[fF]{q}{n}*\b{sql}\b{n}*\{`)+
					"|`[^`]*\\b"+sqlVerb+"\\b[^`]*\\$\\{"+
					"|"+inQuotes(`{q}{n}*\b{sql}\b{n}*%[sd]{n}*{q}\s*%`)+
					"|"+inQuotes(`{q}{n}*\b{sql}\b{n}*\{[^}]*\}{n}*{q}\.format\(`)+
					`|"[^"]*\b`+sqlVerb+`\b[^"]*\$[A-Za-z_]`,
			),
			Description:    "A SQL statement is built with string formatting or interpolation, which splices untrusted values into the query text.",
			Recommendation: recommend("Replace the formatted SQL with placeholders and pass the values as bound parameters."),
			Fix: firstOf(
				sqlFix(findInterpolation),
				annotate("use a parameterized query and bind these values instead of formatting them into the SQL."),
			),
		},
		{
			ID:       "command-injection",
			Category: model.Injection,
			Name:     "OS Command Injection",
			Severity: model.SeverityCritical,
			Matcher: lineRuleExcept(
				`\bos\.(system|popen)\s*\([^)]*(\+|%|\.format\(|\b[fF]["'])`+
					`|\bsubprocess\.(call|run|Popen|check_output|check_call)\s*\([^)]*shell\s*=\s*True`+
					`|\b(exec|execSync|spawn|spawnSync)\s*\(\s*([^)]*\+\s*[\w$]|`+"`[^`]*\\$\\{)"+
					`|\b(shell_exec|system|passthru|exec|popen|proc_open)\s*\([^)]*\$\w`+
					`|Runtime\.getRuntime\(\)\.exec\s*\([^)]*\+`+
					`|\b(system|popen|execl|execlp|execvp)\s*\(\s*[a-z_]\w*\s*[,)]`,
				`escapeshellarg|escapeshellcmd|shlex\.quote`,
			),
			Description:    "A shell command is built from variable input, allowing an attacker to inject additional commands.",
			Recommendation: recommend("Invoke the program directly with an argument vector (no shell), or strictly validate and escape every argument."),
			Fix: firstOf(withNote("the command runs without a shell and user input is passed as a discrete argument.", byLanguage(map[model.Language]Fix{
				langPython: chain(
					rewriteCall(osSystemCall, func(c call, _ model.Language) (string, bool) {
						if len(c.args) != 1 {
							return "", false
						}
						argv, ok := commandArgv(c.args[0], false)
						if !ok {
							return "", false
						}
						return "subprocess.run([" + strings.Join(argv, ", ") + "], check=True)", true
					}),
					wrapFirstArg(subprocessCall, func(arg string, _ model.Language) (string, bool) {
						argv, ok := commandArgv(arg, false)
						if !ok {
							return "", false
						}
						return "[" + strings.Join(argv, ", ") + "]", true
					}),
					replace(shellTrue, "shell=False"),
				),
				langJS: rewriteCall(jsExecCall, func(c call, _ model.Language) (string, bool) {
					if len(c.args) == 0 {
						return "", false
					}
					argv, ok := commandArgv(c.args[0], false)
					if !ok {
						return "", false
					}
					name := "execFile"
					if strings.HasPrefix(c.name, "execSync") {
						name = "execFileSync"
					}
					args := []string{argv[0], "[" + strings.Join(argv[1:], ", ") + "]"}
					args = append(args, c.args[1:]...)
					return name + "(" + strings.Join(args, ", ") + ")", true
				}),
				langPHP: replaceWith(phpConcatVar, func(sub []string, _ model.Language) string {
					return ". escapeshellarg(" + sub[1] + ")"
				}),
			}, unchanged)),
				annotate("pass user input as a discrete argument without a shell, or validate it against an allow-list."),
			),
		},
		{
			ID:       "code-injection",
			Category: model.Injection,
			Name:     "Dynamic Code Evaluation",
			Severity: model.SeverityHigh,
			Matcher: lineRule(
				`\beval\s*\(\s*[^)\s]|\bnew\s+Function\s*\(|\bsetTimeout\s*\(\s*["']|\bcreate_function\s*\(|\bassert\s*\(\s*\$`,
			),
			Description:    "Text is evaluated as code at runtime; if any part of it is user-controlled this is remote code execution.",
			Recommendation: recommend("Never evaluate untrusted text. Parse data with a data-only parser such as JSON.parse or ast.literal_eval."),
			Fix: firstOf(
				withNote("a data-only parser replaces dynamic evaluation.", byLanguage(map[model.Language]Fix{
					langPython: replace(jsEvalCall, "ast.literal_eval("),
					langJS:     replace(jsEvalCall, "JSON.parse("),
				}, unchanged)),
				annotate("remove dynamic evaluation; parse data with a data-only parser instead."),
			),
		},
		{
			ID:        "xss-dom-sink",
			Category:  model.Injection,
			Name:      "Cross-Site Scripting via DOM Sink",
			Severity:  model.SeverityHigh,
			Languages: []model.Language{langJS, langHTML, langPHP, langGeneral},
			Matcher: lineRuleExcept(
				`\.(innerHTML|outerHTML)\s*(\+)?=[^=]|\bdocument\.write(ln)?\s*\(|\.insertAdjacentHTML\s*\(|\$\([^)]*\)\.html\s*\(\s*[^)\s]|\bdangerouslySetInnerHTML\b`,
				`DOMPurify\.sanitize|\.innerHTML\s*=\s*(""|'')\s*;?\s*$`,
			),
			Description:    "Untrusted data written into an HTML sink is parsed as markup and can execute script.",
			Recommendation: recommend("Write text with textContent (or an equivalent text API), or sanitize HTML with a vetted library such as DOMPurify before inserting it."),
			Fix: firstOf(
				withNote("content is inserted as text so the browser never parses it as HTML.", chain(
					replace(regexp.MustCompile(`\.(innerHTML|outerHTML)(\s*\+?=)`), ".textContent${2}"),
					replace(regexp.MustCompile(`\bdocument\.write(ln)?\s*\(`), "document.body.append("),
					replace(regexp.MustCompile(`\.insertAdjacentHTML\s*\(`), ".insertAdjacentText("),
					replace(regexp.MustCompile(`(\$\([^)]*\))\.html\s*\(`), "${1}.text("),
				)),
				annotate("sanitize this HTML with DOMPurify.sanitize before rendering it."),
			),
		},
		{
			ID:        "xss-reflected-output",
			Category:  model.Injection,
			Name:      "Reflected Cross-Site Scripting",
			Severity:  model.SeverityHigh,
			Languages: []model.Language{langPHP, langJS, langPython, langJava, langHTML, langGeneral},
			Matcher: lineRuleExcept(
				`\b(echo|print)\b[^;]*\$_(GET|POST|REQUEST|COOKIE)\[`+
					`|<\?=\s*\$_(GET|POST|REQUEST|COOKIE)\[`+
					`|\bres\.(send|write|end)\s*\([^)]*\breq\.(query|params|body)`+
					`|\breturn\s+[^#\n]*\brequest\.(args|form|values)`+
					`|\brender_template_string\s*\([^)]*\brequest\.`+
					`|getWriter\(\)\.(print|println|write)\s*\([^)]*getParameter`,
				`htmlspecialchars|htmlentities|\bescape(Html)?\s*\(|encodeForHTML|Encode\.forHtml`,
			),
			Description:    "Request data is written into the response without output encoding.",
			Recommendation: recommend("HTML-encode untrusted values at output time with the framework's escaping helper, or render them through an auto-escaping template."),
			Fix: firstOf(
				withNote("request data is HTML-encoded before it reaches the response.", chain(
					replace(regexp.MustCompile(`(\$_(?:GET|POST|REQUEST|COOKIE)\[[^\]]*\])`), "htmlspecialchars(${1}, ENT_QUOTES, 'UTF-8')"),
					replace(regexp.MustCompile(`(\breq\.(?:query|params|body)(?:\.\w+|\[[^\]]*\])*)`), "escapeHtml(${1})"),
					replace(regexp.MustCompile(`(\brequest\.(?:args|form|values)(?:\.get\([^)]*\)|\[[^\]]*\]))`), "escape(${1})"),
					replace(regexp.MustCompile(`(\brequest\.getParameter\([^)]*\))`), "Encode.forHtml(${1})"),
				)),
				annotate("HTML-encode request data before writing it into the response."),
			),
		},
		{
			ID:        "nosql-injection",
			Category:  model.Injection,
			Name:      "NoSQL Injection",
			Severity:  model.SeverityHigh,
			Languages: []model.Language{langJS, langPython, langPHP, langGeneral},
			Matcher: lineRuleExcept(
				`\.(find|findOne|findOneAndUpdate|findOneAndDelete|updateOne|updateMany|deleteOne|deleteMany|countDocuments)\s*\(\s*(req\.(body|query|params)|\{[^}]*:\s*req\.(body|query|params))|\$where\b`,
				`sanitizeFilter|mongo-sanitize|\bString\(`,
			),
			Description:    "A database query object is taken from the request, so operators such as $ne or $where can be injected.",
			Recommendation: recommend("Build the query from validated scalar values or strip operator keys with mongoose.sanitizeFilter / express-mongo-sanitize."),
			Fix: firstOf(
				withNote("operator keys are stripped from the request-supplied filter.",
					wrapFirstArg(mongoQueryCall, func(arg string, _ model.Language) (string, bool) {
						if !strings.Contains(arg, "req.") {
							return "", false
						}
						return "mongoose.sanitizeFilter(" + arg + ")", true
					})),
				annotate("avoid $where and build the query from validated scalar values."),
			),
		},
		{
			ID:             "javascript-url",
			Category:       model.Injection,
			Name:           "javascript: URL in Markup",
			Severity:       model.SeverityMedium,
			Languages:      []model.Language{langHTML, langJS, langPHP, langGeneral},
			Matcher:        lineRule(`(?i)\b(href|src|action|formaction)\s*=\s*["']\s*javascript:`),
			Description:    "A javascript: URL executes script from an attribute and defeats Content-Security-Policy protections.",
			Recommendation: recommend("Attach behaviour with addEventListener and keep URL attributes to real http(s) targets."),
			Fix: withNote("attach the handler with addEventListener instead of a javascript: URL.",
				replace(regexp.MustCompile(`(?i)\b(href|src|action|formaction)\s*=\s*(["'])\s*javascript:[^"']*["']`), `${1}=${2}#${2}`)),
		},
		{
			ID:             "css-expression",
			Category:       model.Injection,
			Name:           "CSS Expression or Binding",
			Severity:       model.SeverityMedium,
			Languages:      []model.Language{langCSS, langHTML, langGeneral},
			Matcher:        Matcher{Kind: MatchLine, Pattern: cssExpression},
			Description:    "CSS expression(), behavior and -moz-binding execute script from a stylesheet in legacy browsers.",
			Recommendation: recommend("Remove the dynamic property and compute the value in script or with static CSS."),
			Fix: func(fragment []string, lang model.Language) []string {
				return mapLines(fragment, func(l string) string {
					if !cssExpression.MatchString(l) {
						return l
					}
					return note(lang, indentOf(l), "dynamic CSS property removed; compute the value with static CSS or script.")
				})
			},
		},
	}
}
