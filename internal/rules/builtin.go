package rules

import (
	"regexp"
	"strings"

	"github.com/raysh454/owaspscan/internal/model"
)

var (
	langJS      = model.LanguageJavaScript
	langPython  = model.LanguagePython
	langPHP     = model.LanguagePHP
	langJava    = model.LanguageJava
	langC       = model.LanguageC
	langHTML    = model.LanguageHTML
	langCSS     = model.LanguageCSS
	langGeneral = model.LanguageGeneral
)

// serverSide returns the languages application logic is usually written in.
func serverSide() []model.Language {
	return []model.Language{langJS, langPython, langPHP, langJava, langGeneral}
}

func lineRule(pattern string) Matcher {
	return Matcher{Kind: MatchLine, Pattern: regexp.MustCompile(pattern)}
}

func lineRuleExcept(pattern, exclude string) Matcher {
	return Matcher{Kind: MatchLine, Pattern: regexp.MustCompile(pattern), Exclude: regexp.MustCompile(exclude)}
}

func windowRule(pattern string, size int) Matcher {
	return Matcher{Kind: MatchWindow, Pattern: regexp.MustCompile(pattern), Window: size}
}

// Builtin returns a fresh copy of the built-in rules in registration
// order. The order groups rules by OWASP category.
func Builtin() []Rule {
	var out []Rule
	for _, group := range [][]Rule{
		accessControlRules(),
		cryptographyRules(),
		injectionRules(),
		designRules(),
		misconfigurationRules(),
		componentRules(),
		authenticationRules(),
		integrityRules(),
		loggingRules(),
		ssrfRules(),
	} {
		out = append(out, group...)
	}
	return out
}

// A01: Broken Access Control

var fileOpenCall = regexp.MustCompile(`(?i)\b(open|fopen|file_get_contents|readfile|readFile|readFileSync|createReadStream|sendFile|include|include_once|require_once|new\s+File|FileInputStream|FileReader|Paths\.get)\s*\(`)

// splitPath separates "dir/" + name into its literal directory and the
// variable part. Without a literal prefix the directory is BASE_DIR.
func splitPath(arg string, php bool) (dir, name string) {
	if arg != "" && (arg[0] == '"' || arg[0] == '\'') {
		if lit, ok := literalAt(arg, 0); ok {
			p := skipSpaces(arg, lit.end)
			if p < len(arg) && (arg[p] == '+' || php && arg[p] == '.') {
				if rest := strings.TrimSpace(arg[p+1:]); rest != "" {
					return arg[:lit.end], rest
				}
			}
		}
	}
	return "BASE_DIR", arg
}

func confinePath(arg string, lang model.Language) (string, bool) {
	dir, name := splitPath(arg, lang == model.LanguagePHP)
	switch lang {
	case model.LanguagePython:
		return "os.path.join(" + dir + ", os.path.basename(" + name + "))", true
	case model.LanguageJavaScript:
		return "path.join(" + dir + ", path.basename(" + name + "))", true
	case model.LanguagePHP:
		if dir == "BASE_DIR" {
			dir = "BASE_DIR . '/'"
		}
		return dir + " . basename(" + name + ")", true
	case model.LanguageJava:
		return "new File(" + dir + ", new File(" + name + ").getName()).getPath()", true
	}
	return "", false
}

func accessControlRules() []Rule {
	return []Rule{
		{
			ID:       "path-traversal",
			Category: model.BrokenAccessControl,
			Name:     "Path Traversal",
			Severity: model.SeverityHigh,
			Matcher: lineRuleExcept(
				`(?i)\b(open|fopen|file_get_contents|readfile|readFile|readFileSync|createReadStream|sendFile|include|include_once|require_once|new\s+File|FileInputStream|FileReader|Paths\.get)\s*\(\s*[^)]*(\+\s*[\w$]|\.\s*\$|\$_(GET|POST|REQUEST|COOKIE)|\breq\.(query|params|body)|\brequest\.(args|GET|POST|form|values|getParameter))`,
				`__dirname\s*\+\s*["'][^"']*["']\s*[,)]|basename\s*\(|path\.normalize|realpath\s*\(`,
			),
			Description:    "A filesystem path is built from user-controlled input, allowing '../' sequences to reach files outside the intended directory.",
			Recommendation: recommend("Reduce the user-supplied value to a base name, resolve it under a fixed base directory and reject the request if the resolved path escapes that directory."),
			Fix: firstOf(
				withNote("the user-supplied path is reduced to its base name and resolved under a fixed directory.",
					wrapFirstArg(fileOpenCall, confinePath)),
				annotate("resolve this path under a fixed base directory and reject '..' segments."),
			),
		},
		{
			ID:        "insecure-direct-object-reference",
			Category:  model.BrokenAccessControl,
			Name:      "Insecure Direct Object Reference",
			Severity:  model.SeverityMedium,
			Languages: serverSide(),
			Matcher: lineRule(
				`(?i)\b(find_?by_?id|findById|findOne|findByPk|get_object_or_404|getById|objects\.get|find)\s*\(\s*[^)]*\b(req\.(params|query|body)|request\.(args|GET|POST|form|view_args|getParameter)|\$_(GET|POST|REQUEST))`,
			),
			Description:    "A record is fetched directly by a request-supplied identifier without an ownership or permission check.",
			Recommendation: recommend("Scope the lookup to the authenticated user (for example by adding the owner ID to the query) or check permissions on the loaded record before returning it."),
			Fix:            annotate("verify that the current user owns or may access the requested record before using it."),
		},
		{
			ID:        "open-redirect",
			Category:  model.BrokenAccessControl,
			Name:      "Open Redirect",
			Severity:  model.SeverityMedium,
			Languages: serverSide(),
			Matcher: lineRuleExcept(
				`(?i)\b(res\.redirect|redirect|HttpResponseRedirect|sendRedirect)\s*\(\s*[^)]*\b(req\.(query|body|params)|request\.(args|GET|POST|form|values|getParameter))|header\(\s*["']Location:\s*["']?\s*\.\s*\$_(GET|POST|REQUEST)`,
				`(?i)is_safe_url|url_has_allowed_host|ALLOWED_REDIRECTS`,
			),
			Description:    "The redirect target comes from the request, so the site can be used to bounce victims to phishing pages.",
			Recommendation: recommend("Redirect only to relative paths or to targets from a server-side allow-list."),
			Fix:            annotate("redirect only to relative paths or to targets listed in ALLOWED_REDIRECTS."),
		},
	}
}

// A02: Cryptographic Failures

var (
	secretAssignment = regexp.MustCompile(`(?i)\b(\w*(?:secret|api_?key|apikey|access_?key|auth_?token|private_?key|client_?secret|token))\b(["']?\s*[:=]\s*)(["'])[^"'\s]{8,}["']`)
	cloudAccessKey   = regexp.MustCompile(`\b(AKIA|ASIA)[0-9A-Z]{16}\b`)
	privateKeyHeader = regexp.MustCompile(`-----BEGIN ((RSA|EC|DSA|OPENSSH|ENCRYPTED) )?PRIVATE KEY-----`)
	insecureURL      = regexp.MustCompile(`(["'])http://([^"'\s]*)`)
	localURL         = regexp.MustCompile(`^(localhost|127\.0\.0\.1|0\.0\.0\.0|\[::1\]|www\.w3\.org|schemas\.|example\.(com|org|net))`)
)

// placeholderValue matches values that are already placeholders or
// environment lookups rather than real secrets.
const placeholderValue = `(?i)[:=]\s*["'](\$\{[^}]*\}|<[^>]*>|x{4,}|\*{4,}|changeme|change_me|your[_-]?[a-z_-]*|example[a-z_-]*|%\(\w+\)s|dummy|placeholder)["']|process\.env|os\.environ|getenv|System\.getenv`

func secretToEnv(re *regexp.Regexp) Fix {
	return replaceWith(re, func(sub []string, lang model.Language) string {
		return sub[1] + sub[2] + envLookup(lang, envName(sub[1]))
	})
}

func cryptographyRules() []Rule {
	return []Rule{
		{
			ID:             "hardcoded-secret",
			Category:       model.CryptographicFailures,
			Name:           "Hardcoded Secret or API Key",
			Severity:       model.SeverityHigh,
			Matcher:        lineRuleExcept(secretAssignment.String(), placeholderValue),
			Description:    "A secret, token or API key is embedded as a string literal in source code.",
			Recommendation: recommend("Load the secret from the environment or a secret manager, and rotate the exposed value."),
			Fix:            withNote("load this secret from external configuration (environment or secret manager); never commit it.", secretToEnv(secretAssignment)),
		},
		{
			ID:       "cloud-access-key",
			Category: model.CryptographicFailures,
			Name:     "Cloud Access Key",
			Severity: model.SeverityCritical,
			Matcher: Matcher{
				Kind:     MatchLine,
				Pattern:  cloudAccessKey,
				Comments: true,
			},
			Description:    "An AWS access key ID is present in the source.",
			Recommendation: recommend("Revoke the key immediately and load credentials from the runtime environment or an instance role."),
			Fix: withNote("cloud credentials must come from the runtime environment; the embedded key was removed.",
				replace(cloudAccessKey, "REPLACE_WITH_ENV_CREDENTIAL")),
		},
		{
			ID:       "embedded-private-key",
			Category: model.CryptographicFailures,
			Name:     "Embedded Private Key",
			Severity: model.SeverityCritical,
			Matcher: Matcher{
				Kind:     MatchLine,
				Pattern:  privateKeyHeader,
				Comments: true,
			},
			Description:    "A PEM private key block is embedded in the source.",
			Recommendation: recommend("Remove the key, rotate it and load key material from a file or secret store outside the repository."),
			Fix: withNote("load the private key from a secret store; the embedded key header was removed.",
				replace(privateKeyHeader, "<private key removed>")),
		},
		{
			ID:       "weak-hash",
			Category: model.CryptographicFailures,
			Name:     "Weak Hash Algorithm",
			Severity: model.SeverityMedium,
			Matcher: lineRule(
				`(?i)(\bhashlib\.(md5|sha1)\s*\(|\bmd5\s*\(|\bsha1\s*\(|MessageDigest\.getInstance\(\s*"(MD5|SHA-?1)"|createHash\(\s*['"](md5|sha1)['"]|DigestUtils\.(md5|sha1)(Hex)?\s*\()`,
			),
			Description:    "MD5 and SHA-1 are broken for collision resistance and far too fast for password storage.",
			Recommendation: recommend("Use SHA-256 or stronger for integrity checks and a slow password hash (bcrypt, scrypt or Argon2) for credentials."),
			Fix: withNote("SHA-256 replaces the broken digest; use bcrypt/Argon2 if this hashes passwords.",
				byLanguage(map[model.Language]Fix{
					langPHP: replace(regexp.MustCompile(`(?i)\b(md5|sha1)\s*\(`), "hash('sha256', "),
				}, chain(
					replace(regexp.MustCompile(`\bhashlib\.(md5|sha1)\s*\(`), "hashlib.sha256("),
					replace(regexp.MustCompile(`createHash\(\s*(['"])(md5|sha1)['"]`), "createHash(${1}sha256${1}"),
					replace(regexp.MustCompile(`MessageDigest\.getInstance\(\s*"(MD5|SHA-?1)"`), `MessageDigest.getInstance("SHA-256"`),
					replace(regexp.MustCompile(`DigestUtils\.(md5|sha1)(Hex)?\s*\(`), "DigestUtils.sha256${2}("),
				))),
		},
		{
			ID:       "weak-cipher",
			Category: model.CryptographicFailures,
			Name:     "Weak Cipher or Mode",
			Severity: model.SeverityHigh,
			Matcher: lineRule(
				`\b(DES|DESede|TripleDES|RC4|Blowfish)\b|(?i:AES/ECB|\bMODE_ECB\b|\baes-\d+-ecb\b|\bcreateCipher\(|Cipher\.getInstance\(\s*"AES"\s*\))`,
			),
			Description:    "A deprecated cipher (DES, 3DES, RC4, Blowfish) or the ECB mode is used; ECB leaks plaintext structure.",
			Recommendation: recommend("Use AES in an authenticated mode such as GCM with a unique IV per message."),
			Fix: withNote("AES-GCM with a fresh random IV per message replaces the weak cipher or mode.", chain(
				replace(regexp.MustCompile(`\b(DES|DESede|TripleDES|RC4|Blowfish)\b`), "AES"),
				replace(regexp.MustCompile(`(?i)AES/ECB/\w+`), "AES/GCM/NoPadding"),
				replace(regexp.MustCompile(`Cipher\.getInstance\(\s*"AES"\s*\)`), `Cipher.getInstance("AES/GCM/NoPadding")`),
				replace(regexp.MustCompile(`\bMODE_ECB\b`), "MODE_GCM"),
				replace(regexp.MustCompile(`(?i)\baes-(\d+)-ecb\b`), "aes-${1}-gcm"),
				replace(regexp.MustCompile(`\bcreateCipher\(`), "createCipheriv("),
			)),
		},
		{
			ID:       "insecure-randomness",
			Category: model.CryptographicFailures,
			Name:     "Insecure Randomness for Security Values",
			Severity: model.SeverityMedium,
			Matcher: lineRule(
				`(?i)(token|secret|password|passwd|salt|nonce|session|otp|api_?key|csrf|reset_?code)\w*["']?\s*[:=].*(Math\.random\(\)|\brandom\.(random|randint|choice|choices|getrandbits)\(|\b(mt_)?rand\s*\(|new\s+Random\s*\(|\brandom\(\))`,
			),
			Description:    "A security-sensitive value is generated with a predictable, non-cryptographic random number generator.",
			Recommendation: recommend("Generate tokens, salts and nonces with a CSPRNG: crypto.randomBytes, the secrets module, random_int or SecureRandom."),
			Fix: withNote("a cryptographically secure generator replaces the predictable one.", byLanguage(map[model.Language]Fix{
				langJS: replace(regexp.MustCompile(`Math\.random\(\)`), `crypto.randomBytes(32).toString("hex")`),
				langPython: chain(
					replace(regexp.MustCompile(`\brandom\.choice\(`), "secrets.choice("),
					replace(regexp.MustCompile(`\brandom\.(random|randint|choices|getrandbits)\(`), "secrets.SystemRandom().${1}("),
				),
				langPHP: chain(
					replace(regexp.MustCompile(`\b(mt_)?rand\(\s*\)`), "random_int(0, PHP_INT_MAX)"),
					replace(regexp.MustCompile(`\b(mt_)?rand\(`), "random_int("),
				),
				langJava: replace(regexp.MustCompile(`\bnew\s+Random\s*\(`), "new SecureRandom("),
			}, annotate("use a cryptographically secure random source (getrandom(2), /dev/urandom or the platform CSPRNG)."))),
		},
		{
			ID:             "cleartext-transport",
			Category:       model.CryptographicFailures,
			Name:           "Cleartext HTTP URL",
			Severity:       model.SeverityLow,
			Languages:      []model.Language{langJS, langPython, langPHP, langJava, langC, langHTML, langGeneral},
			Matcher:        lineRuleExcept(`["']http://[^"'\s]+["']`, `["']http://(localhost|127\.0\.0\.1|0\.0\.0\.0|\[::1\]|www\.w3\.org|schemas\.|example\.(com|org|net))`),
			Description:    "A resource is addressed over plain HTTP, exposing data in transit to interception and tampering.",
			Recommendation: recommend("Use HTTPS for every external endpoint."),
			Fix: withNote("HTTPS replaces the cleartext URL.", replaceWith(insecureURL, func(sub []string, _ model.Language) string {
				if localURL.MatchString(sub[2]) {
					return sub[0]
				}
				return sub[1] + "https://" + sub[2]
			})),
		},
	}
}

// A04: Insecure Design

func designRules() []Rule {
	return []Rule{
		{
			ID:        "unvalidated-input",
			Category:  model.InsecureDesign,
			Name:      "Missing Input Validation",
			Severity:  model.SeverityLow,
			Languages: serverSide(),
			Matcher: lineRuleExcept(
				`\breq\.(body|query|params)\.\w+|\brequest\.(args|form|values|GET|POST)(\.get\(|\[)|\$_(GET|POST|REQUEST|COOKIE)\[|\brequest\.getParameter\(`,
				`(?i)(validat|sanitiz|escape|htmlspecialchars|filter_input|filter_var|\bint\(|parseInt|Number\(|isset\(|Integer\.parseInt)`,
			),
			Description:    "Request data is used directly without validating its type, length or format.",
			Recommendation: recommend("Validate every request value against an allow-list (type, length, format) at the trust boundary before using it."),
			Fix:            annotate("validate type, length and format of this request value against an allow-list before use."),
		},
		{
			ID:        "mass-assignment",
			Category:  model.InsecureDesign,
			Name:      "Mass Assignment",
			Severity:  model.SeverityMedium,
			Languages: serverSide(),
			Matcher: lineRule(
				`\.(create|update|insert|build|findOneAndUpdate|updateOne|save)\s*\(\s*req\.body\s*\)|\(\s*\*\*request\.(json|form|get_json\(\))\s*\)|->(fill|update|create)\s*\(\s*\$request->all\(\)\s*\)|::create\(\s*\$_POST\s*\)`,
			),
			Description:    "An entire request body is bound to a model, letting clients set fields such as roles or ownership.",
			Recommendation: recommend("Bind only an explicit allow-list of fields from the request."),
			Fix: withNote("only the fields in ALLOWED_FIELDS are bound from the request.", chain(
				replace(regexp.MustCompile(`\(\s*req\.body\s*\)`), "(pick(req.body, ALLOWED_FIELDS))"),
				replace(regexp.MustCompile(`\(\s*\*\*request\.(json|form)\s*\)`), "(**{k: request.${1}[k] for k in ALLOWED_FIELDS if k in request.${1}})"),
				replace(regexp.MustCompile(`\(\s*\*\*request\.get_json\(\)\s*\)`), "(**{k: v for k, v in request.get_json().items() if k in ALLOWED_FIELDS})"),
				replace(regexp.MustCompile(`\$request->all\(\)`), "$$request->only(ALLOWED_FIELDS)"),
				replace(regexp.MustCompile(`::create\(\s*\$_POST\s*\)`), "::create(array_intersect_key($$_POST, array_flip(ALLOWED_FIELDS)))"),
			)),
		},
	}
}

func flipBoolean(s string) string {
	switch s {
	case "False":
		return "True"
	case "false":
		return "true"
	case "FALSE":
		return "TRUE"
	case "True":
		return "False"
	case "true":
		return "false"
	case "TRUE":
		return "FALSE"
	case "0":
		return "1"
	case "1":
		return "0"
	case "off", "Off", "OFF":
		return strings.Replace(strings.Replace(s, "ff", "n", 1), "FF", "N", 1)
	case "on", "On", "ON":
		return strings.Replace(strings.Replace(s, "n", "ff", 1), "N", "FF", 1)
	}
	return s
}

var booleanToken = regexp.MustCompile(`(?i)\b(true|false|on|off|0|1)\b`)

// flipLast inverts the last boolean-like token inside each match of re.
func flipLast(re *regexp.Regexp) Fix {
	return replaceWith(re, func(sub []string, _ model.Language) string {
		m := sub[0]
		locs := booleanToken.FindAllStringIndex(m, -1)
		if len(locs) == 0 {
			return m
		}
		l := locs[len(locs)-1]
		return m[:l[0]] + flipBoolean(m[l[0]:l[1]]) + m[l[1]:]
	})
}
