package model

import "strings"

// Language is the label assigned to an analysed document.
type Language string

const (
	LanguageJavaScript Language = "JavaScript"
	LanguagePython     Language = "Python"
	LanguagePHP        Language = "PHP"
	LanguageJava       Language = "Java"
	LanguageC          Language = "C/C++"
	LanguageHTML       Language = "HTML"
	LanguageCSS        Language = "CSS"
	LanguageGeneral    Language = "General"
)

// Languages lists every supported label in tie-break priority order.
// General is always last.
var Languages = []Language{
	LanguagePHP,
	LanguagePython,
	LanguageJava,
	LanguageJavaScript,
	LanguageC,
	LanguageHTML,
	LanguageCSS,
	LanguageGeneral,
}

// ParseLanguage resolves a user supplied label (case-insensitive, a few
// common aliases accepted). ok is false for unknown labels.
func ParseLanguage(s string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "javascript", "js", "node", "typescript", "ts":
		return LanguageJavaScript, true
	case "python", "py":
		return LanguagePython, true
	case "php":
		return LanguagePHP, true
	case "java":
		return LanguageJava, true
	case "c/c++", "c", "c++", "cpp":
		return LanguageC, true
	case "html", "htm":
		return LanguageHTML, true
	case "css":
		return LanguageCSS, true
	case "general", "":
		return LanguageGeneral, true
	}
	return "", false
}

// CommentPrefix returns the single-line comment token used when
// remediation inserts explanatory lines.
func (l Language) CommentPrefix() string {
	switch l {
	case LanguagePython, LanguageGeneral:
		return "#"
	case LanguageHTML:
		return "<!--"
	case LanguageCSS:
		return "/*"
	default:
		return "//"
	}
}

// Comment wraps text in the language's comment syntax.
func (l Language) Comment(text string) string {
	switch l {
	case LanguageHTML:
		return "<!-- " + text + " -->"
	case LanguageCSS:
		return "/* " + text + " */"
	default:
		return l.CommentPrefix() + " " + text
	}
}

// IsCommentLine reports whether a trimmed line is a comment in l.
// '#' only counts for languages where it starts a comment, so C
// preprocessor directives are still scanned.
func (l Language) IsCommentLine(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	switch l {
	case LanguagePython:
		return strings.HasPrefix(trimmed, "#")
	case LanguageHTML:
		return strings.HasPrefix(trimmed, "<!--")
	case LanguageCSS:
		return strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "*")
	case LanguagePHP:
		return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") ||
			strings.HasPrefix(trimmed, "* ") || trimmed == "*" ||
			(strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "#["))
	case LanguageGeneral:
		return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "<!--")
	default:
		return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") ||
			strings.HasPrefix(trimmed, "* ") || trimmed == "*"
	}
}
