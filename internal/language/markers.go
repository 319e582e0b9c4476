package language

import (
	"regexp"

	"github.com/raysh454/owaspscan/internal/model"
)

// marker is one lexical cue. Each occurrence adds weight, up to limit
// occurrences, so a single repeated token cannot dominate.
type marker struct {
	re     *regexp.Regexp
	weight int
	limit  int
}

func m(pattern string, weight, limit int) marker {
	return marker{re: regexp.MustCompile(pattern), weight: weight, limit: limit}
}

// markerTable is built by the Classifier constructor; it is never shared
// through a package-level variable.
func markerTable() map[model.Language][]marker {
	return map[model.Language][]marker{
		model.LanguagePHP: {
			m(`<\?php`, 10, 1),
			m(`(?m)^\s*\$[A-Za-z_]\w*\s*=`, 2, 10),
			m(`\$_(GET|POST|REQUEST|COOKIE|SERVER|SESSION)\b`, 3, 5),
			m(`\$[A-Za-z_]\w*->`, 2, 5),
			m(`(?m)^\s*echo\s`, 2, 5),
			m(`\b(mysqli?_\w+|htmlspecialchars|isset|array_\w+)\s*\(`, 2, 5),
			m(`(?m)^\s*(public\s+)?function\s+\w+\s*\(\s*\$`, 3, 5),
		},
		model.LanguagePython: {
			m(`(?m)^\s*def\s+\w+\s*\(.*\)\s*(->\s*[\w\[\], .]+)?:\s*$`, 4, 5),
			m(`(?m)^\s*(import\s+\w+|from\s+[\w.]+\s+import\s)`, 3, 5),
			m(`(?m)^\s*(if|elif|while|for|with|try|except|else)\b[^{;]*:\s*$`, 2, 10),
			m(`(?m)^\s*(class\s+\w+(\(.*\))?:|elif\b|except\b)`, 3, 5),
			m(`\bself\.\w+`, 1, 5),
			m(`\b(None|True|False)\b`, 1, 5),
			m(`__name__\s*==\s*["']__main__["']`, 5, 1),
			m(`(?m)^\s*print\(`, 1, 5),
			m(`\bf["'][^"']*\{`, 2, 3),
		},
		model.LanguageJava: {
			m(`\b(public|private|protected)\s+(static\s+)?(final\s+)?(class|interface|enum)\s+\w+`, 5, 3),
			m(`System\.(out|err)\.print(ln)?\(`, 4, 3),
			m(`(?m)^\s*import\s+java(x)?\.[\w.]+;`, 5, 5),
			m(`(?m)^\s*package\s+[\w.]+;`, 3, 1),
			m(`public\s+static\s+void\s+main\s*\(\s*String`, 6, 1),
			m(`(?m)^\s*@(Override|Autowired|RestController|GetMapping|PostMapping)\b`, 3, 5),
			m(`\b(String|int|boolean|long|void)\s+\w+\s*\([^)]*\)\s*(throws\s+\w+\s*)?\{`, 2, 5),
			m(`\bnew\s+[A-Z]\w*(<[\w<>, ]*>)?\s*\(`, 1, 5),
		},
		model.LanguageJavaScript: {
			m(`(?m)^\s*(const|let|var)\s+[\w{}\[\], ]+\s*=`, 2, 10),
			m(`\bfunction\s*\w*\s*\(`, 2, 5),
			m(`=>`, 1, 5),
			m(`\bconsole\.(log|error|warn|info)\(`, 3, 3),
			m(`\b(document|window)\.\w+`, 2, 5),
			m(`\brequire\(\s*['"][\w@/.-]+['"]\s*\)`, 3, 5),
			m(`(?m)^\s*(import\s+.+\s+from\s+['"]|export\s+(default\s+)?(function|const|class))`, 3, 5),
			m(`===|!==`, 1, 5),
			m(`\b(req|res)\.(body|query|params|send|json|status)\b`, 2, 5),
		},
		model.LanguageC: {
			m(`(?m)^\s*#\s*include\s*[<"]`, 5, 5),
			m(`(?m)^\s*#\s*(define|ifdef|ifndef|endif|pragma)\b`, 2, 5),
			m(`\bint\s+main\s*\(`, 5, 1),
			m(`\b(printf|fprintf|scanf|malloc|calloc|free|strcpy|strcat|sprintf|gets)\s*\(`, 2, 5),
			m(`\bstd::\w+`, 3, 5),
			m(`\b(char|int|void|unsigned|size_t)\s*\*\s*\w+`, 2, 5),
			m(`\b(cout|cin|cerr)\s*(<<|>>)`, 3, 3),
		},
		model.LanguageCSS: {
			m(`(?m)^\s*[.#]?[A-Za-z][\w-]*(\s*[,>+~]?\s*[.#:]?[\w-]+)*\s*\{\s*$`, 2, 10),
			m(`(?m)^\s*[a-z-]+\s*:\s*[^;{}]+;\s*$`, 1, 15),
			m(`@(media|import|font-face|keyframes)\b`, 3, 3),
			m(`\b(color|margin|padding|font-size|display|background)\s*:`, 1, 10),
		},
	}
}

// htmlElements are the tag names counted for HTML density. Generic type
// parameters such as List<String> never match one of these.
var htmlElements = map[string]bool{
	"html": true, "head": true, "body": true, "title": true, "meta": true, "link": true,
	"script": true, "style": true, "div": true, "span": true, "p": true, "a": true,
	"img": true, "form": true, "input": true, "button": true, "table": true, "tr": true,
	"td": true, "th": true, "ul": true, "ol": true, "li": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "nav": true, "header": true, "footer": true, "section": true,
	"main": true, "iframe": true, "label": true, "select": true, "option": true,
	"textarea": true, "br": true, "hr": true,
}
