package rules

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/raysh454/owaspscan/internal/model"
)

var (
	headOpen   = regexp.MustCompile(`(?i)<head(\s[^>]*)?>`)
	expressApp = regexp.MustCompile(`\b(\w+)\s*=\s*express\(\s*\)`)
	usesHelmet = regexp.MustCompile(`\bhelmet\b`)

	logCall = regexp.MustCompile(`(?i)\b(console\.(log|info|debug|warn|error)|print|println|printf|logger\.\w+|logging\.\w+|log\.\w+|error_log|System\.(out|err)\.print(ln)?|var_dump|print_r)\s*\(`)

	sensitiveIdent = regexp.MustCompile(`(?i)(?:[\w$]+(?:->|\.))*[\w$]*(password|passwd|pwd|secret|token|api_?key|credit_?card|card_?number|ssn|cvv)\w*(?:(?:->|\.)\w+|\[[^\]]*\]|\([^()]*\))*`)
)

const cspMeta = `<meta http-equiv="Content-Security-Policy" content="default-src 'self'">`

// missingCSP flags the <head> line of a page that declares no CSP meta
// tag. Documents without a head element are not flagged.
func missingCSP(doc *model.Document, _ model.Language) []int {
	head := -1
	for i, l := range doc.Lines {
		if headOpen.MatchString(l) {
			head = i
			break
		}
	}
	if head < 0 {
		return nil
	}
	page, err := goquery.NewDocumentFromReader(strings.NewReader(doc.Text))
	if err != nil {
		return nil
	}
	declared := false
	page.Find("meta[http-equiv]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(s.AttrOr("http-equiv", "")), "Content-Security-Policy") {
			declared = true
			return false
		}
		return true
	})
	if declared {
		return nil
	}
	return []int{head}
}

// insertCSP adds the meta tag right after <head>, on the same line when
// the head element continues there.
func insertCSP(fragment []string, lang model.Language) []string {
	out := append([]string(nil), fragment...)
	for i, l := range out {
		if isNote(l) {
			continue
		}
		loc := headOpen.FindStringIndex(l)
		if loc == nil {
			continue
		}
		if strings.TrimSpace(l[loc[1]:]) != "" {
			out[i] = l[:loc[1]] + cspMeta + l[loc[1]:]
			return out
		}
		rest := append([]string{indentOf(l) + "  " + cspMeta}, out[i+1:]...)
		return append(out[:i+1], rest...)
	}
	return fragment
}

// expressWithoutHelmet flags the line creating an Express app when the
// document never mentions helmet.
func expressWithoutHelmet(doc *model.Document, lang model.Language) []int {
	if usesHelmet.MatchString(doc.Text) {
		return nil
	}
	for i, l := range doc.Lines {
		if lang.IsCommentLine(strings.TrimSpace(l)) {
			continue
		}
		if expressApp.MatchString(l) {
			return []int{i}
		}
	}
	return nil
}

func redactSensitive(line string) string {
	return redactOutside(line, sensitiveIdent, `"[REDACTED]"`)
}

// sensitiveLogging flags logging calls whose arguments reference
// credential-like identifiers outside string literals.
func sensitiveLogging(doc *model.Document, lang model.Language) []int {
	var hits []int
	for i, l := range doc.Lines {
		if lang.IsCommentLine(strings.TrimSpace(l)) || isNote(l) {
			continue
		}
		loc := logCall.FindStringIndex(l)
		if loc == nil {
			continue
		}
		if redactSensitive(l[loc[1]:]) != l[loc[1]:] {
			hits = append(hits, i)
		}
	}
	return hits
}

func redactLogArguments(fragment []string, _ model.Language) []string {
	return mapLines(fragment, func(l string) string {
		loc := logCall.FindStringIndex(l)
		if loc == nil {
			return l
		}
		return l[:loc[1]] + redactSensitive(l[loc[1]:])
	})
}
