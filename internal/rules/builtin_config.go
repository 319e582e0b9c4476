package rules

import (
	"regexp"
	"strings"

	"github.com/raysh454/owaspscan/internal/model"
)

var (
	debugEnabled  = regexp.MustCompile(`(?i)\bdebug\s*[:=]\s*(true|1|on)\b|display_errors["']?\s*[,:=]\s*["']?(1|on|true)\b`)
	tlsFlippable  = regexp.MustCompile(`\bverify\s*=\s*False\b|rejectUnauthorized["']?\s*:\s*false\b|NODE_TLS_REJECT_UNAUTHORIZED["']?\s*\]?\s*=\s*["']?0\b|CURLOPT_SSL_VERIFY(PEER|HOST)\s*,\s*(false|0)\b|check_hostname\s*=\s*False\b|InsecureSkipVerify:\s*true\b`)
	corsOriginFix = chain(
		replace(regexp.MustCompile(`(Access-Control-Allow-Origin["']?\s*[,:]\s*["']?)\*`), "${1}https://app.example.com"),
		replace(regexp.MustCompile(`\bcors\(\s*\)`), "cors({ origin: ALLOWED_ORIGINS })"),
		replace(regexp.MustCompile(`\borigin(["']?\s*:\s*)["']\*["']`), "origin${1}ALLOWED_ORIGINS"),
		replace(regexp.MustCompile(`\bCORS\(\s*app\s*\)`), "CORS(app, origins=ALLOWED_ORIGINS)"),
		replace(regexp.MustCompile(`\ballowedOrigins\(\s*"\*"\s*\)`), "allowedOrigins(ALLOWED_ORIGINS)"),
		replace(regexp.MustCompile(`@CrossOrigin\s*\(\s*(origins\s*=\s*)?"\*"\s*\)`), `@CrossOrigin(origins = "https://app.example.com")`),
	)
	cFormatString = regexp.MustCompile(`\bscanf\s*\(\s*"[^"]*"`)
	jqueryVersion = regexp.MustCompile(`(?i)(jquery[-./@]?)(?:[12]|3\.[0-4])(?:\.\d+)*`)
)

func misconfigurationRules() []Rule {
	return []Rule{
		{
			ID:             "debug-mode-enabled",
			Category:       model.SecurityMisconfiguration,
			Name:           "Debug Mode Enabled",
			Severity:       model.SeverityMedium,
			Matcher:        Matcher{Kind: MatchLine, Pattern: debugEnabled},
			Description:    "Debug mode or error display is switched on, which exposes stack traces, configuration and sometimes an interactive console.",
			Recommendation: recommend("Disable debug output in production and drive the setting from environment-specific configuration."),
			Fix:            withNote("debug output is disabled; enable it only through development configuration.", flipLast(debugEnabled)),
		},
		{
			ID:       "tls-verification-disabled",
			Category: model.SecurityMisconfiguration,
			Name:     "TLS Certificate Verification Disabled",
			Severity: model.SeverityHigh,
			Matcher: lineRule(
				`\bverify\s*=\s*False\b|rejectUnauthorized["']?\s*:\s*false\b|NODE_TLS_REJECT_UNAUTHORIZED["']?\s*\]?\s*=\s*["']?0|CURLOPT_SSL_VERIFY(PEER|HOST)\s*,\s*(false|0)\b|check_hostname\s*=\s*False\b|\bssl\._create_unverified_context\b|\bCERT_NONE\b|InsecureSkipVerify:\s*true\b|NoopHostnameVerifier|ALLOW_ALL_HOSTNAME_VERIFIER`,
			),
			Description:    "Certificate or hostname verification is turned off, so any man-in-the-middle can impersonate the remote server.",
			Recommendation: recommend("Keep verification enabled and trust a private CA explicitly if the server uses one."),
			Fix: firstOf(
				withNote("certificate and hostname verification stay enabled.", chain(
					flipLast(tlsFlippable),
					replace(regexp.MustCompile(`\bssl\._create_unverified_context\(`), "ssl.create_default_context("),
					replace(regexp.MustCompile(`\bCERT_NONE\b`), "CERT_REQUIRED"),
				)),
				annotate("replace the permissive hostname verifier with the default verifier."),
			),
		},
		{
			ID:       "cors-wildcard-origin",
			Category: model.SecurityMisconfiguration,
			Name:     "Permissive CORS Policy",
			Severity: model.SeverityMedium,
			Matcher: lineRule(
				`Access-Control-Allow-Origin["']?\s*[,:]\s*["']?\*|\bcors\(\s*\)|\borigin["']?\s*:\s*["']\*["']|\bCORS\(\s*app\s*\)|\ballowedOrigins\(\s*"\*"\s*\)|@CrossOrigin\s*(\(\s*(origins\s*=\s*)?"\*"\s*\))?\s*$`,
			),
			Description:    "Any origin may read responses from this service.",
			Recommendation: recommend("Allow only the specific origins that need access."),
			Fix: firstOf(
				withNote("only origins listed in ALLOWED_ORIGINS may read responses.", corsOriginFix),
				annotate("restrict cross-origin access to an explicit list of origins."),
			),
		},
		{
			ID:       "cors-credentials-wildcard",
			Category: model.SecurityMisconfiguration,
			Name:     "CORS Wildcard with Credentials",
			Severity: model.SeverityHigh,
			Matcher: windowRule(
				`(?is)(origin["']?\s*[:,=]\s*["']?\*.*credentials["']?\s*[:,=]\s*["']?true|credentials["']?\s*[:,=]\s*["']?true.*origin["']?\s*[:,=]\s*["']?\*)`,
				4,
			),
			Description:    "A wildcard origin is combined with credentialed requests, letting any site act with the user's cookies.",
			Recommendation: recommend("Never combine credentials with a wildcard; echo back only origins from an allow-list."),
			Fix: firstOf(
				withNote("credentialed CORS is limited to origins in ALLOWED_ORIGINS.", corsOriginFix),
				annotate("do not combine a wildcard origin with credentials."),
			),
		},
		{
			ID:             "missing-content-security-policy",
			Category:       model.SecurityMisconfiguration,
			Name:           "Missing Content-Security-Policy",
			Severity:       model.SeverityLow,
			Languages:      []model.Language{langHTML},
			Matcher:        Matcher{Kind: MatchPredicate, Predicate: missingCSP},
			Description:    "The page declares no Content-Security-Policy, so injected script runs without restriction.",
			Recommendation: recommend("Send a Content-Security-Policy header, or add a meta tag, that limits script sources to trusted origins."),
			Fix:            withNote("a restrictive Content-Security-Policy is declared; widen it only for trusted sources.", insertCSP),
		},
		{
			ID:             "missing-security-headers",
			Category:       model.SecurityMisconfiguration,
			Name:           "Express App Without Security Headers",
			Severity:       model.SeverityLow,
			Languages:      []model.Language{langJS},
			Matcher:        Matcher{Kind: MatchPredicate, Predicate: expressWithoutHelmet},
			Description:    "An Express application is created without helmet or equivalent middleware, so default security headers are missing.",
			Recommendation: recommend("Register helmet (or set HSTS, X-Content-Type-Options, X-Frame-Options and CSP headers yourself) before any routes."),
			Fix: withNote("helmet sets the standard security headers for every response.", insertAfter(func(line string, _ model.Language) (string, bool) {
				m := expressApp.FindStringSubmatch(line)
				if m == nil {
					return "", false
				}
				return m[1] + `.use(require("helmet")());`, true
			})),
		},
	}
}

// A06: Vulnerable and Outdated Components

func componentRules() []Rule {
	return []Rule{
		{
			ID:             "unsafe-c-functions",
			Category:       model.VulnerableComponents,
			Name:           "Unbounded C String Function",
			Severity:       model.SeverityHigh,
			Languages:      []model.Language{langC},
			Matcher:        lineRule(`\b(gets|strcpy|strcat|sprintf|vsprintf)\s*\(|\bscanf\s*\(\s*"[^"]*%s`),
			Description:    "gets, strcpy, strcat, sprintf and unbounded %s conversions write past the destination buffer on long input.",
			Recommendation: recommend("Use the bounded variants (fgets, strncpy/strlcpy, strncat, snprintf) and always pass the destination size."),
			Fix: withNote("bounded variants replace the unbounded buffer writes.", chain(
				rewriteCall(regexp.MustCompile(`\bgets\s*\(`), func(c call, _ model.Language) (string, bool) {
					if len(c.args) != 1 {
						return "", false
					}
					return "fgets(" + c.args[0] + ", sizeof(" + c.args[0] + "), stdin)", true
				}),
				rewriteCall(regexp.MustCompile(`\bstrcpy\s*\(`), func(c call, _ model.Language) (string, bool) {
					if len(c.args) != 2 {
						return "", false
					}
					return "strncpy(" + c.args[0] + ", " + c.args[1] + ", sizeof(" + c.args[0] + ") - 1)", true
				}),
				rewriteCall(regexp.MustCompile(`\bstrcat\s*\(`), func(c call, _ model.Language) (string, bool) {
					if len(c.args) != 2 {
						return "", false
					}
					return "strncat(" + c.args[0] + ", " + c.args[1] + ", sizeof(" + c.args[0] + ") - strlen(" + c.args[0] + ") - 1)", true
				}),
				rewriteCall(regexp.MustCompile(`\b(v?)sprintf\s*\(`), func(c call, _ model.Language) (string, bool) {
					if len(c.args) < 2 {
						return "", false
					}
					name := "snprintf"
					if strings.HasPrefix(c.name, "v") {
						name = "vsnprintf"
					}
					args := append([]string{c.args[0], "sizeof(" + c.args[0] + ")"}, c.args[1:]...)
					return name + "(" + strings.Join(args, ", ") + ")", true
				}),
				replaceWith(cFormatString, func(sub []string, _ model.Language) string {
					return strings.ReplaceAll(sub[0], "%s", "%255s")
				}),
			)),
		},
		{
			ID:             "deprecated-mysql-api",
			Category:       model.VulnerableComponents,
			Name:           "Removed mysql_* API",
			Severity:       model.SeverityHigh,
			Languages:      []model.Language{langPHP, langGeneral},
			Matcher:        lineRule(`\bmysql_(query|connect|pconnect|fetch_\w+|select_db|real_escape_string|escape_string|num_rows|result|close|error)\s*\(`),
			Description:    "The mysql_* extension was removed in PHP 7 and offers no prepared statements.",
			Recommendation: recommend("Migrate to PDO or mysqli and use prepared statements."),
			Fix: withNote("mysqli replaces the removed mysql extension; pass the connection and use prepared statements.",
				replace(regexp.MustCompile(`\bmysql_(\w+)\s*\(`), "mysqli_${1}(")),
		},
		{
			ID:        "outdated-js-library",
			Category:  model.VulnerableComponents,
			Name:      "Outdated Front-End Library",
			Severity:  model.SeverityMedium,
			Languages: []model.Language{langHTML, langJS, langPHP, langGeneral},
			Matcher: lineRule(
				`(?i)jquery[-./@]?([12]\.\d+|3\.[0-4])|"jquery"\s*:\s*"[~^]?[12]\.|bootstrap[/@-][23]\.\d+|angular(\.min)?\.js|angularjs/1\.`,
			),
			Description:    "A front-end library version with published XSS or prototype-pollution advisories is referenced.",
			Recommendation: recommend("Upgrade to a supported release and track dependencies with a software composition analysis tool."),
			Fix: firstOf(
				withNote("the library reference points at a supported release; re-test the page after upgrading.", chain(
					replaceWith(jqueryVersion, func(sub []string, _ model.Language) string { return sub[1] + "3.7.1" }),
					replace(regexp.MustCompile(`("jquery"\s*:\s*"[~^]?)[12](?:\.\d+)*`), "${1}3.7.1"),
					replace(regexp.MustCompile(`(?i)(bootstrap[/@-])[23](?:\.\d+)*`), "${1}5.3.3"),
				)),
				annotate("AngularJS is end-of-life; migrate to a supported framework."),
			),
		},
		{
			ID:             "insecure-temp-file",
			Category:       model.VulnerableComponents,
			Name:           "Insecure Temporary File",
			Severity:       model.SeverityMedium,
			Languages:      []model.Language{langPython, langC, langGeneral},
			Matcher:        lineRule(`\btempfile\.mktemp\s*\(|\bos\.tempnam\s*\(|\b(tmpnam|tempnam|mktemp)\s*\(`),
			Description:    "The temporary file name is chosen before the file is created, leaving a race an attacker can win.",
			Recommendation: recommend("Create the file atomically with tempfile.mkstemp / NamedTemporaryFile or mkstemp(3)."),
			Fix: firstOf(
				withNote("mkstemp creates the file atomically.", replace(regexp.MustCompile(`\btempfile\.mktemp\s*\(`), "tempfile.mkstemp(")),
				annotate("create temporary files atomically with mkstemp()."),
			),
		},
	}
}
