package rules

import (
	"regexp"
	"strings"

	"github.com/raysh454/owaspscan/internal/model"
)

// NoteMarker prefixes every explanatory comment a fix inserts. Line
// rewrites skip lines carrying it so that a later fix never edits an
// earlier fix's note.
const NoteMarker = "SECURITY:"

// illustrative is appended to every built-in recommendation.
const illustrative = " The suggested rewrite is an illustrative secure idiom, not a verified drop-in replacement; review it before use."

func recommend(text string) string { return text + illustrative }

// noteTokens are the comment openers note() can emit.
var noteTokens = []string{"#", "//", "<!--", "/*"}

// isNote reports whether line is an inserted note: a comment whose text
// starts with NoteMarker. Code that merely mentions the marker is not a
// note.
func isNote(line string) bool {
	t := strings.TrimSpace(line)
	for _, tok := range noteTokens {
		if rest, ok := strings.CutPrefix(t, tok); ok {
			return strings.HasPrefix(strings.TrimSpace(rest), NoteMarker)
		}
	}
	return false
}

func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func note(lang model.Language, indent, text string) string {
	return indent + lang.Comment(NoteMarker+" "+text)
}

// firstCode returns the index of the first non-note line, or -1.
func firstCode(fragment []string) int {
	for i, l := range fragment {
		if !isNote(l) {
			return i
		}
	}
	return -1
}

// mapLines applies fn to every non-note line.
func mapLines(fragment []string, fn func(string) string) []string {
	out := make([]string, len(fragment))
	for i, l := range fragment {
		if isNote(l) {
			out[i] = l
			continue
		}
		out[i] = fn(l)
	}
	return out
}

// replace rewrites every match of re using a regexp template.
func replace(re *regexp.Regexp, tmpl string) Fix {
	return func(fragment []string, _ model.Language) []string {
		return mapLines(fragment, func(l string) string { return re.ReplaceAllString(l, tmpl) })
	}
}

// replaceWith rewrites every match of re with fn(submatches, lang).
func replaceWith(re *regexp.Regexp, fn func(sub []string, lang model.Language) string) Fix {
	return func(fragment []string, lang model.Language) []string {
		return mapLines(fragment, func(l string) string {
			return re.ReplaceAllStringFunc(l, func(match string) string {
				return fn(re.FindStringSubmatch(match), lang)
			})
		})
	}
}

// byLanguage dispatches to the fix for lang, or fallback.
func byLanguage(fixes map[model.Language]Fix, fallback Fix) Fix {
	return func(fragment []string, lang model.Language) []string {
		if f, ok := fixes[lang]; ok {
			return f(fragment, lang)
		}
		return fallback(fragment, lang)
	}
}

// chain runs fixes in order; notes inserted by earlier ones are preserved.
func chain(fixes ...Fix) Fix {
	return func(fragment []string, lang model.Language) []string {
		for _, f := range fixes {
			fragment = f(fragment, lang)
		}
		return fragment
	}
}

// unchanged is the identity fix.
func unchanged(fragment []string, _ model.Language) []string { return fragment }

// firstOf returns the result of the first fix that changes the fragment.
func firstOf(fixes ...Fix) Fix {
	return func(fragment []string, lang model.Language) []string {
		for _, f := range fixes {
			if out := f(fragment, lang); !equalLines(out, fragment) {
				return out
			}
		}
		return fragment
	}
}

// annotate inserts a note above the first code line of the fragment.
func annotate(text string) Fix {
	return func(fragment []string, lang model.Language) []string {
		i := firstCode(fragment)
		if i < 0 {
			return fragment
		}
		out := make([]string, 0, len(fragment)+1)
		out = append(out, fragment[:i]...)
		out = append(out, note(lang, indentOf(fragment[i]), text))
		return append(out, fragment[i:]...)
	}
}

// withNote runs fix and, only when it changed the fragment, adds a note
// above the first code line.
func withNote(text string, fix Fix) Fix {
	return func(fragment []string, lang model.Language) []string {
		out := fix(fragment, lang)
		if equalLines(out, fragment) {
			return fragment
		}
		return annotate(text)(out, lang)
	}
}

// insertBefore adds a code line, built from the first code line, above it.
// build returns ok=false when it cannot produce a line.
func insertBefore(build func(line string, lang model.Language) (string, bool)) Fix {
	return func(fragment []string, lang model.Language) []string {
		i := firstCode(fragment)
		if i < 0 {
			return fragment
		}
		extra, ok := build(fragment[i], lang)
		if !ok {
			return fragment
		}
		out := make([]string, 0, len(fragment)+1)
		out = append(out, fragment[:i]...)
		out = append(out, indentOf(fragment[i])+extra)
		return append(out, fragment[i:]...)
	}
}

// insertAfter adds a code line after the last line of the fragment.
func insertAfter(build func(line string, lang model.Language) (string, bool)) Fix {
	return func(fragment []string, lang model.Language) []string {
		if len(fragment) == 0 {
			return fragment
		}
		last := fragment[len(fragment)-1]
		extra, ok := build(last, lang)
		if !ok {
			return fragment
		}
		out := append([]string(nil), fragment...)
		return append(out, indentOf(last)+extra)
	}
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// redactOutside replaces matches of re that fall outside string literals.
func redactOutside(line string, re *regexp.Regexp, with string) string {
	var b strings.Builder
	var quote byte
	seg := 0
	flush := func(end int) {
		b.WriteString(re.ReplaceAllString(line[seg:end], with))
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				b.WriteString(line[seg : i+1])
				seg = i + 1
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			flush(i)
			seg = i
			quote = c
		}
	}
	if quote != 0 {
		b.WriteString(line[seg:])
	} else {
		flush(len(line))
	}
	return b.String()
}

// envLookup is the per-language expression that reads name from the
// environment.
func envLookup(lang model.Language, name string) string {
	switch lang {
	case model.LanguagePython:
		return `os.environ.get("` + name + `")`
	case model.LanguageJavaScript:
		return "process.env." + name
	case model.LanguagePHP:
		return "getenv('" + name + "')"
	case model.LanguageJava:
		return `System.getenv("` + name + `")`
	case model.LanguageC:
		return `getenv("` + name + `")`
	default:
		return `"${` + name + `}"`
	}
}

var nonIdent = regexp.MustCompile(`[^A-Za-z0-9]+`)

// envName turns an identifier such as dbPassword or api-key into DB_PASSWORD
// or API_KEY.
func envName(key string) string {
	var b strings.Builder
	for i, r := range key {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := key[i-1]
			if prev >= 'a' && prev <= 'z' {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	name := strings.Trim(nonIdent.ReplaceAllString(b.String(), "_"), "_")
	if name == "" {
		return "SECRET"
	}
	return strings.ToUpper(name)
}
