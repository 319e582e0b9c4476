package rules

import (
	"regexp"
	"strings"

	"github.com/raysh454/owaspscan/internal/model"
)

var (
	passwordAssignment = regexp.MustCompile(`(?i)\b(\w*(?:password|passwd|pwd))\b(["']?\s*[:=]\s*)(["'])[^"']{3,}["']`)
	equalityCompare    = regexp.MustCompile(`([\w.$>-]+(?:\[[^\]]*\]|\([^()]*\))*)\s*(===|!==|==|!=)\s*([\w.$>-]+(?:\[[^\]]*\]|\([^()]*\))*|"[^"]*"|'[^']*')`)
	javaEqualsCompare  = regexp.MustCompile(`(\w[\w.]*(?:\([^()]*\))?)\.equals\(([^()]*(?:\([^()]*\))?)\)`)
	passwordWord       = regexp.MustCompile(`(?i)passw(or)?d|pwd`)
	cookieFlagOff      = regexp.MustCompile(`(?i)\b(secure|httpOnly|SESSION_COOKIE_SECURE|SESSION_COOKIE_HTTPONLY|session\.cookie_secure|session\.cookie_httponly|setSecure|setHttpOnly)["']?\s*[:=,(]\s*["']?(false|0|off)\b`)
	jwtFlippable       = regexp.MustCompile(`\bverify\s*=\s*False\b|["']verify_signature["']\s*:\s*False\b|\bignoreExpiration\s*:\s*true\b`)
	jwtDecodeCall      = regexp.MustCompile(`\bjwt\.decode\s*\(`)
	swallowedCatch     = regexp.MustCompile(`catch\s*(\([^)]*\))?\s*\{\s*\}`)
	ssrfCall           = regexp.MustCompile(`\b(requests\.(?:get|post|put|delete|head|patch|request)|urllib\.request\.urlopen|urlopen|httpx\.(?:get|post|stream)|fetch|axios(?:\.(?:get|post|put|delete|request))?|https?\.(?:get|request)|got|file_get_contents|curl_init|new\s+URL|restTemplate\.(?:getForObject|getForEntity|exchange)|URI\.create)\s*\(`)
)

// requestSource matches expressions that carry request input.
const requestSource = `(\breq\.(query|body|params)|\brequest\.(args|GET|POST|form|values|json|getParameter)|\$_(GET|POST|REQUEST)|\b(user|target|remote|callback|webhook)_?[uU]rl\b)`

func comparePasswords(sub []string, lang model.Language) string {
	a, op, b := sub[1], sub[2], sub[3]
	if !passwordWord.MatchString(a) && !passwordWord.MatchString(b) {
		return sub[0]
	}
	negate := op == "!=" || op == "!=="
	var expr string
	switch lang {
	case model.LanguagePython:
		expr = "hmac.compare_digest(" + a + ", " + b + ")"
		if negate {
			return "not " + expr
		}
		return expr
	case model.LanguageJavaScript:
		expr = "crypto.timingSafeEqual(Buffer.from(" + a + "), Buffer.from(" + b + "))"
	case model.LanguagePHP:
		expr = "hash_equals(" + a + ", " + b + ")"
	default:
		return sub[0]
	}
	if negate {
		return "!" + expr
	}
	return expr
}

func authenticationRules() []Rule {
	return []Rule{
		{
			ID:             "hardcoded-password",
			Category:       model.AuthenticationFailures,
			Name:           "Hardcoded Password",
			Severity:       model.SeverityCritical,
			Matcher:        lineRuleExcept(passwordAssignment.String(), placeholderValue),
			Description:    "A password literal is embedded in source code, where anyone with repository access can read it.",
			Recommendation: recommend("Read the credential from the environment or a secret manager at runtime and rotate the exposed password."),
			Fix:            withNote("read this credential from external configuration (environment or secret manager); never commit it.", secretToEnv(passwordAssignment)),
		},
		{
			ID:        "plaintext-password-comparison",
			Category:  model.AuthenticationFailures,
			Name:      "Plaintext Password Comparison",
			Severity:  model.SeverityMedium,
			Languages: serverSide(),
			Matcher: lineRule(
				`(?i)\b\w*(password|passwd|pwd)\w*(\[[^\]]*\])?\s*(===|!==|==|!=)\s*\S|\S\s*(===|!==|==|!=)\s*[\w.$]*(password|passwd|pwd)\w*\b|\.equals\(\s*[\w.]*(password|passwd)|(password|passwd)\w*(\(\))?\.equals\(|strcmp\(\s*\$?\w*(password|passwd)`,
			),
			Description:    "Passwords are compared as plaintext with an ordinary equality operator, which implies they are stored unhashed and leaks timing information.",
			Recommendation: recommend("Store salted password hashes (bcrypt, scrypt or Argon2) and verify with the library's constant-time check."),
			Fix: firstOf(
				withNote("store salted hashes (bcrypt/Argon2) and verify with the library; a constant-time comparison is shown.", byLanguage(map[model.Language]Fix{
					langJava: replace(javaEqualsCompare, "MessageDigest.isEqual(${1}.getBytes(), ${2}.getBytes())"),
				}, replaceWith(equalityCompare, comparePasswords))),
				annotate("store salted hashes (bcrypt/Argon2) and verify passwords with the library's constant-time check."),
			),
		},
		{
			ID:             "insecure-cookie",
			Category:       model.AuthenticationFailures,
			Name:           "Session Cookie Without Secure Flags",
			Severity:       model.SeverityMedium,
			Matcher:        Matcher{Kind: MatchLine, Pattern: cookieFlagOff},
			Description:    "A cookie is issued without the Secure or HttpOnly flag, exposing the session to network sniffing or script access.",
			Recommendation: recommend("Set Secure, HttpOnly and SameSite on every session cookie."),
			Fix:            withNote("session cookies are marked Secure and HttpOnly; add SameSite as well.", flipLast(cookieFlagOff)),
		},
		{
			ID:       "jwt-verification-disabled",
			Category: model.AuthenticationFailures,
			Name:     "JWT Signature Not Verified",
			Severity: model.SeverityHigh,
			Matcher: lineRule(
				`(?i)algorithms?["']?\s*[:=]\s*\[?\s*["']none["']|\bjwt\.decode\([^)]*verify\s*=\s*False|["']verify_signature["']\s*:\s*False|\bignoreExpiration\s*:\s*true\b|\bjwt\.decode\(\s*\w+\s*\)`,
			),
			Description:    "Tokens are accepted without verifying their signature or expiry, so a forged token authenticates.",
			Recommendation: recommend("Verify every token with a pinned algorithm and a server-side key, and reject expired tokens."),
			Fix: withNote("tokens are verified with a pinned algorithm and the server-side key.", chain(
				replace(regexp.MustCompile(`(?i)(algorithms?["']?\s*[:=]\s*\[?\s*)(["'])none["']`), "${1}${2}HS256${2}"),
				flipLast(jwtFlippable),
				byLanguage(map[model.Language]Fix{
					langJS: rewriteCall(jwtDecodeCall, func(c call, _ model.Language) (string, bool) {
						if len(c.args) != 1 {
							return "", false
						}
						return "jwt.verify(" + c.args[0] + ", process.env.JWT_SECRET)", true
					}),
				}, unchanged),
			)),
		},
	}
}

// A08: Software and Data Integrity Failures

func integrityRules() []Rule {
	pythonSafeLoad := chain(
		replace(regexp.MustCompile(`\bc?[pP]ickle\.load(s?)\s*\(`), "json.load${1}("),
		replace(regexp.MustCompile(`\bmarshal\.load(s?)\s*\(`), "json.load${1}("),
		replace(regexp.MustCompile(`\byaml\.load\s*\(([^,()]+(?:\([^()]*\))?)\s*,\s*Loader\s*=\s*[\w.]+\s*\)`), "yaml.safe_load(${1})"),
		replace(regexp.MustCompile(`\byaml\.load\s*\(`), "yaml.safe_load("),
	)
	return []Rule{
		{
			ID:       "insecure-deserialization",
			Category: model.IntegrityFailures,
			Name:     "Insecure Deserialization",
			Severity: model.SeverityHigh,
			Matcher: lineRuleExcept(
				`\bc?[pP]ickle\.loads?\s*\(|\byaml\.load\s*\(|\bmarshal\.loads?\s*\(|\bshelve\.open\s*\(|\bunserialize\s*\(|\bObjectInputStream\s*\(|\.readObject\s*\(\s*\)|\bXMLDecoder\s*\(|\bBinaryFormatter\b`,
				`SafeLoader|CSafeLoader|\ballowed_classes["']?\s*=>\s*false`,
			),
			Description:    "Untrusted bytes are deserialized with a format that can instantiate arbitrary objects, which commonly leads to code execution.",
			Recommendation: recommend("Exchange data as JSON (or another data-only format) and validate it against a schema; never deserialize native objects from untrusted sources."),
			Fix: firstOf(
				withNote("a data-only parser replaces native object deserialization.", byLanguage(map[model.Language]Fix{
					langPython: pythonSafeLoad,
					langJS:     replace(regexp.MustCompile(`\b(?:serialize\.)?unserialize\s*\(`), "JSON.parse("),
					langPHP:    replace(regexp.MustCompile(`\bunserialize\s*\(`), "json_decode("),
					langJava:   unchanged,
				}, chain(
					pythonSafeLoad,
					replace(regexp.MustCompile(`\bserialize\.unserialize\s*\(`), "JSON.parse("),
					replace(regexp.MustCompile(`\bunserialize\s*\(`), "json_decode("),
				))),
				annotate("restrict deserialization with an ObjectInputFilter allow-list or switch to a data-only format."),
			),
		},
		{
			ID:        "missing-subresource-integrity",
			Category:  model.IntegrityFailures,
			Name:      "Third-Party Resource Without Integrity",
			Severity:  model.SeverityMedium,
			Languages: []model.Language{langHTML, langPHP, langGeneral},
			Matcher: lineRuleExcept(
				`(?i)<script\b[^>]*\bsrc\s*=\s*["']?(https?:)?//|<link\b[^>]*\bhref\s*=\s*["']?(https?:)?//[^"'\s>]*\.css`,
				`(?i)\bintegrity\s*=`,
			),
			Description:    "A script or stylesheet is loaded from a third-party host without a Subresource Integrity hash, so a compromised CDN can serve malicious code.",
			Recommendation: recommend("Add an integrity attribute with the resource's SHA-384 hash and crossorigin=\"anonymous\", or self-host the file."),
			Fix: withNote("replace the placeholder with the published SHA-384 hash of the exact file version.",
				replace(regexp.MustCompile(`(?i)<(script|link)\b`), `<${1} integrity="sha384-REPLACE_WITH_RESOURCE_HASH" crossorigin="anonymous"`)),
		},
		{
			ID:             "css-insecure-import",
			Category:       model.IntegrityFailures,
			Name:           "Stylesheet Imported over HTTP",
			Severity:       model.SeverityMedium,
			Languages:      []model.Language{langCSS, langHTML, langGeneral},
			Matcher:        lineRule(`(?i)@import\s+(url\()?\s*["']?http://`),
			Description:    "A stylesheet is imported over plain HTTP and can be replaced in transit.",
			Recommendation: recommend("Import stylesheets over HTTPS or bundle them locally."),
			Fix:            withNote("the stylesheet is imported over HTTPS.", replace(regexp.MustCompile(`(?i)(@import\s+(?:url\()?\s*["']?)http://`), "${1}https://")),
		},
		{
			ID:             "download-and-execute",
			Category:       model.IntegrityFailures,
			Name:           "Remote Script Piped to Shell",
			Severity:       model.SeverityHigh,
			Languages:      []model.Language{langGeneral, langPython, langPHP, langJS},
			Matcher:        lineRule(`\b(curl|wget)\b[^|#]*\|\s*(sudo\s+)?(ba|z)?sh\b`),
			Description:    "A script is downloaded and executed without any integrity check.",
			Recommendation: recommend("Download to a file, verify its checksum or signature, and only then execute it."),
			Fix:            annotate("download the script to a file and verify its checksum or signature before running it."),
		},
	}
}

// A09: Security Logging and Monitoring Failures

func logStatement(lang model.Language, errVar string) string {
	switch lang {
	case model.LanguageJavaScript:
		return "console.error(" + errVar + ");"
	case model.LanguageJava:
		return `logger.error("Unhandled exception", ` + errVar + ");"
	case model.LanguagePHP:
		return "error_log(" + errVar + "->getMessage());"
	case model.LanguageC:
		return `std::cerr << "unhandled exception" << std::endl;`
	default:
		return lang.Comment("log the exception and handle or rethrow it")
	}
}

var catchVar = regexp.MustCompile(`(\$?\w+)\s*\)$`)

// expandCatch rewrites an empty catch block into one that logs.
func expandCatch(fragment []string, lang model.Language) []string {
	text := strings.Join(fragment, "\n")
	loc := swallowedCatch.FindStringSubmatchIndex(text)
	if loc == nil {
		return fragment
	}
	lineStart := strings.LastIndexByte(text[:loc[0]], '\n') + 1
	indent := indentOf(text[lineStart:])

	params := ""
	if loc[2] >= 0 {
		params = text[loc[2]:loc[3]]
	}
	errVar := ""
	if m := catchVar.FindStringSubmatch(params); m != nil {
		errVar = m[1]
	}
	if errVar == "" {
		switch lang {
		case model.LanguageJavaScript:
			params, errVar = "(err)", "err"
		case model.LanguagePHP:
			params, errVar = `(\Throwable $e)`, "$e"
		case model.LanguageJava:
			params, errVar = "(Exception e)", "e"
		case model.LanguageC:
			if params == "" {
				params = "(...)"
			}
		}
	}
	if params != "" {
		params += " "
	}

	block := "catch " + params + "{\n" + indent + "    " + logStatement(lang, errVar) + "\n" + indent + "}"
	text = text[:loc[0]] + block + text[loc[1]:]
	return strings.Split(text, "\n")
}

func loggingRules() []Rule {
	return []Rule{
		{
			ID:       "stack-trace-exposure",
			Category: model.LoggingFailures,
			Name:     "Error Details Exposed to Clients",
			Severity: model.SeverityMedium,
			Matcher: lineRule(
				`\.printStackTrace\s*\(\s*\)|\btraceback\.(print_exc|format_exc)\s*\(|\bres\.(send|json)\s*\(\s*(err|error|e)(\.stack|\.message)?\s*\)|\becho\s+\$\w+->getMessage\(\)|\bdie\s*\(\s*mysqli?_error\s*\(|\breturn\s+str\((e|err|ex|exc)\)|getWriter\(\)\.print(ln)?\([^)]*(getMessage|getStackTrace)`,
			),
			Description:    "Exception details or stack traces are printed or returned to the client, revealing internals useful to an attacker.",
			Recommendation: recommend("Log the full error server-side and return a generic message with an error ID to the client."),
			Fix: firstOf(
				withNote("the exception is logged server-side and the client receives a generic message.", chain(
					replace(regexp.MustCompile(`\b(\w+)\.printStackTrace\s*\(\s*\)`), `logger.error("Unhandled exception", ${1})`),
					replace(regexp.MustCompile(`\btraceback\.print_exc\s*\(\s*\)`), `logging.exception("Unhandled exception")`),
					replace(regexp.MustCompile(`\bres\.(send|json)\s*\(\s*(err|error|e)(\.stack|\.message)?\s*\)`), `res.status(500).send("Internal Server Error")`),
					replace(regexp.MustCompile(`\becho\s+\$(\w+)->getMessage\(\)\s*;`), `error_log($$${1}->getMessage()); echo "An internal error occurred.";`),
					replace(regexp.MustCompile(`\bdie\s*\(\s*mysqli?_error\s*\([^()]*\)\s*\)`), `die("A database error occurred.")`),
					replace(regexp.MustCompile(`\breturn\s+str\((e|err|ex|exc)\)`), `return "Internal Server Error", 500`),
				)),
				annotate("log the error server-side and return a generic message to the client."),
			),
		},
		{
			ID:             "swallowed-exception",
			Category:       model.LoggingFailures,
			Name:           "Empty Catch Block",
			Severity:       model.SeverityMedium,
			Languages:      []model.Language{langJS, langJava, langPHP, langC, langGeneral},
			Matcher:        Matcher{Kind: MatchWindow, Pattern: swallowedCatch, Window: 3},
			Description:    "An exception is caught and silently discarded, hiding failures and attacks from monitoring.",
			Recommendation: recommend("Log the exception with context and either handle it or rethrow it."),
			Fix:            expandCatch,
		},
		{
			ID:             "python-except-pass",
			Category:       model.LoggingFailures,
			Name:           "Exception Silenced with pass",
			Severity:       model.SeverityMedium,
			Languages:      []model.Language{langPython},
			Matcher:        windowRule(`\bexcept\b[^:\n]*:\s*(#[^\n]*)?\n\s*pass\b|\bexcept\b[^:\n]*:\s*pass\b`, 2),
			Description:    "An except clause discards the exception with pass, so failures leave no trace.",
			Recommendation: recommend("Catch specific exceptions and log them with logging.exception before handling."),
			Fix: withNote("the exception is logged instead of silently discarded.", chain(
				replace(regexp.MustCompile(`^(\s*)except\s*:`), "${1}except Exception:"),
				replace(regexp.MustCompile(`(\bexcept\b[^:]*:\s*)pass\b`), `${1}logging.exception("Unhandled exception")`),
				replace(regexp.MustCompile(`^(\s*)pass\s*$`), `${1}logging.exception("Unhandled exception")`),
			)),
		},
		{
			ID:             "sensitive-data-logging",
			Category:       model.LoggingFailures,
			Name:           "Sensitive Data Written to Logs",
			Severity:       model.SeverityMedium,
			Matcher:        Matcher{Kind: MatchPredicate, Predicate: sensitiveLogging},
			Description:    "Credentials, tokens or card data are written to a log where they outlive the request and reach more readers.",
			Recommendation: recommend("Log identifiers and outcomes, never secrets; mask sensitive fields before logging."),
			Fix:            withNote("sensitive values are masked before logging.", redactLogArguments),
		},
	}
}

// A10: Server-Side Request Forgery

func hostGuard(arg string, lang model.Language) (string, bool) {
	switch lang {
	case model.LanguagePython:
		return "if urlparse(" + arg + `).hostname not in ALLOWED_HOSTS: raise ValueError("host not allowed")`, true
	case model.LanguageJavaScript:
		return "if (!ALLOWED_HOSTS.includes(new URL(" + arg + `).hostname)) throw new Error("host not allowed");`, true
	case model.LanguagePHP:
		return "if (!in_array(parse_url(" + arg + ", PHP_URL_HOST), ALLOWED_HOSTS, true)) { throw new InvalidArgumentException('host not allowed'); }", true
	case model.LanguageJava:
		return "if (!ALLOWED_HOSTS.contains(URI.create(" + arg + `).getHost())) throw new IllegalArgumentException("host not allowed");`, true
	}
	return "", false
}

func ssrfRules() []Rule {
	return []Rule{
		{
			ID:        "ssrf-user-controlled-url",
			Category:  model.ServerSideRequestForgery,
			Name:      "Request to User-Controlled URL",
			Severity:  model.SeverityHigh,
			Languages: serverSide(),
			Matcher: lineRuleExcept(
				ssrfCall.String()+`[^)]*`+requestSource,
				`(?i)ALLOWED_HOSTS|allow_?list|whitelist`,
			),
			Description:    "The server fetches a URL taken from the request, letting an attacker reach internal services or cloud metadata endpoints.",
			Recommendation: recommend("Parse the URL, allow only known schemes and hosts, and resolve the host to reject private and link-local addresses before connecting."),
			Fix: firstOf(
				withNote("only hosts in ALLOWED_HOSTS may be fetched; also reject private and link-local addresses.", guardCall(ssrfCall, hostGuard)),
				annotate("validate the URL's scheme and host against an allow-list before fetching it."),
			),
		},
	}
}
