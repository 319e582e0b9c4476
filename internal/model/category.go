package model

import "fmt"

// Category is an OWASP Top 10 (2021) category, numbered 1 through 10.
type Category int

const (
	BrokenAccessControl Category = iota + 1
	CryptographicFailures
	Injection
	InsecureDesign
	SecurityMisconfiguration
	VulnerableComponents
	AuthenticationFailures
	IntegrityFailures
	LoggingFailures
	ServerSideRequestForgery
)

// CategoryInfo is the reference entry for one category.
type CategoryInfo struct {
	Category        Category `json:"id"`
	Code            string   `json:"code"`
	Name            string   `json:"name"`
	DefaultSeverity Severity `json:"defaultSeverity"`
	Description     string   `json:"description"`
	Prevention      []string `json:"prevention"`
}

var categoryTable = [...]CategoryInfo{
	{
		Category:        BrokenAccessControl,
		Name:            "Broken Access Control",
		DefaultSeverity: SeverityCritical,
		Description:     "Users can act outside of their intended permissions: reading other users' records, traversing the filesystem or reaching privileged functions.",
		Prevention: []string{
			"Deny by default except for public resources",
			"Enforce record ownership on every object lookup",
			"Resolve file paths against a fixed base directory",
		},
	},
	{
		Category:        CryptographicFailures,
		Name:            "Cryptographic Failures",
		DefaultSeverity: SeverityHigh,
		Description:     "Sensitive data is exposed through missing, weak or misused cryptography, including secrets embedded in source.",
		Prevention: []string{
			"Keep secrets out of source and load them from configuration",
			"Use SHA-256 or better for integrity and a slow KDF for passwords",
			"Require TLS for all data in transit",
		},
	},
	{
		Category:        Injection,
		Name:            "Injection",
		DefaultSeverity: SeverityCritical,
		Description:     "Untrusted data is sent to an interpreter as part of a command or query: SQL, OS commands, script evaluation or HTML.",
		Prevention: []string{
			"Use parameterized queries",
			"Pass command arguments as a list, never through a shell",
			"Encode output for the context it is rendered in",
		},
	},
	{
		Category:        InsecureDesign,
		Name:            "Insecure Design",
		DefaultSeverity: SeverityHigh,
		Description:     "Missing or ineffective control design, such as trusting request data without validation.",
		Prevention: []string{
			"Validate input against an allow-list at every trust boundary",
			"Bind only the fields a request is allowed to set",
		},
	},
	{
		Category:        SecurityMisconfiguration,
		Name:            "Security Misconfiguration",
		DefaultSeverity: SeverityHigh,
		Description:     "Insecure defaults, debug modes, permissive CORS, disabled certificate checks or missing security headers.",
		Prevention: []string{
			"Disable debug features in production",
			"Restrict CORS to known origins",
			"Send a Content-Security-Policy and other security headers",
		},
	},
	{
		Category:        VulnerableComponents,
		Name:            "Vulnerable and Outdated Components",
		DefaultSeverity: SeverityMedium,
		Description:     "Use of unsupported libraries or inherently unsafe APIs with known vulnerabilities.",
		Prevention: []string{
			"Track dependency versions and upgrade regularly",
			"Replace deprecated and unbounded APIs with their safe counterparts",
		},
	},
	{
		Category:        AuthenticationFailures,
		Name:            "Identification and Authentication Failures",
		DefaultSeverity: SeverityHigh,
		Description:     "Weak credential handling: hardcoded passwords, plaintext comparison, insecure session cookies or unsigned tokens.",
		Prevention: []string{
			"Never hardcode credentials",
			"Compare secrets in constant time against stored hashes",
			"Mark session cookies Secure and HttpOnly",
		},
	},
	{
		Category:        IntegrityFailures,
		Name:            "Software and Data Integrity Failures",
		DefaultSeverity: SeverityHigh,
		Description:     "Code or data is trusted without integrity verification: unsafe deserialization, unpinned third-party scripts.",
		Prevention: []string{
			"Deserialize untrusted data only with data-only formats",
			"Pin third-party scripts with Subresource Integrity",
		},
	},
	{
		Category:        LoggingFailures,
		Name:            "Security Logging and Monitoring Failures",
		DefaultSeverity: SeverityMedium,
		Description:     "Errors are swallowed, leaked to clients or logged together with sensitive data.",
		Prevention: []string{
			"Log failures server-side with enough context to investigate",
			"Return generic error messages to clients",
			"Keep secrets and personal data out of logs",
		},
	},
	{
		Category:        ServerSideRequestForgery,
		Name:            "Server-Side Request Forgery (SSRF)",
		DefaultSeverity: SeverityHigh,
		Description:     "The server fetches a URL supplied by the user without validating its destination.",
		Prevention: []string{
			"Validate destination hosts against an allow-list",
			"Block requests to private and link-local address ranges",
		},
	},
}

// Valid reports whether c is one of the ten categories.
func (c Category) Valid() bool { return c >= BrokenAccessControl && c <= ServerSideRequestForgery }

// Info returns the reference entry; the zero value for invalid categories.
func (c Category) Info() CategoryInfo {
	if !c.Valid() {
		return CategoryInfo{}
	}
	info := categoryTable[c-1]
	info.Code = fmt.Sprintf("A%02d:2021", int(c))
	info.Prevention = append([]string(nil), info.Prevention...)
	return info
}

// Code is the short OWASP identifier, e.g. "A03:2021".
func (c Category) Code() string { return c.Info().Code }

func (c Category) Name() string { return c.Info().Name }

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return c.Code() + " " + c.Name()
}

// Categories returns the reference table in category order.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(categoryTable))
	for c := BrokenAccessControl; c <= ServerSideRequestForgery; c++ {
		out = append(out, c.Info())
	}
	return out
}
