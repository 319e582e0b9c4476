package language_test

import (
	"testing"

	"github.com/raysh454/owaspscan/internal/language"
	"github.com/raysh454/owaspscan/internal/model"
)

func TestClassify_KnownLanguages(t *testing.T) {
	t.Parallel()
	c := language.NewClassifier()

	cases := []struct {
		name string
		text string
		want model.Language
	}{
		{
			name: "php",
			text: "<?php\n$id = $_GET['id'];\necho $id;\n?>",
			want: model.LanguagePHP,
		},
		{
			name: "python",
			text: "import os\n\ndef greet(name):\n    return \"Hello, \" + name\n\nprint(greet(\"world\"))\n",
			want: model.LanguagePython,
		},
		{
			name: "java",
			text: "import java.util.List;\n\npublic class Main {\n    public static void main(String[] args) {\n        System.out.println(\"hi\");\n    }\n}\n",
			want: model.LanguageJava,
		},
		{
			name: "javascript",
			text: "const express = require('express');\nconst app = express();\napp.get('/', (req, res) => {\n  res.send('ok');\n});\n",
			want: model.LanguageJavaScript,
		},
		{
			name: "c",
			text: "#include <stdio.h>\n\nint main(void) {\n    char buf[16];\n    printf(\"%s\", buf);\n    return 0;\n}\n",
			want: model.LanguageC,
		},
		{
			name: "html",
			text: "<!DOCTYPE html>\n<html>\n<head><title>Home</title></head>\n<body>\n<div><p>Hello</p></div>\n</body>\n</html>\n",
			want: model.LanguageHTML,
		},
		{
			name: "css",
			text: "body {\n  color: #333;\n  margin: 0;\n  padding: 0;\n}\n.header {\n  display: flex;\n}\n",
			want: model.LanguageCSS,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := c.Classify(tc.text); got != tc.want {
				t.Errorf("Classify = %s, want %s (scores %v)", got, tc.want, c.Scores(tc.text))
			}
		})
	}
}

func TestClassify_FallsBackToGeneral(t *testing.T) {
	t.Parallel()
	c := language.NewClassifier()

	for _, text := range []string{"", "   \n\t", "hello world", "\x00\x01\x02\xff"} {
		if got := c.Classify(text); got != model.LanguageGeneral {
			t.Errorf("Classify(%q) = %s, want General", text, got)
		}
	}
}

func TestClassify_GenericsAreNotHTML(t *testing.T) {
	t.Parallel()
	c := language.NewClassifier()

	text := "List<String> names = new ArrayList<String>();\nMap<Integer, String> m = new HashMap<>();\n"
	if s := c.Scores(text)[model.LanguageHTML]; s != 0 {
		t.Errorf("expected zero HTML score for Java generics, got %d", s)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	t.Parallel()
	c := language.NewClassifier()
	text := "<div>\n<script>\nvar x = 1;\n</script>\n</div>\n"

	first := c.Classify(text)
	for i := 0; i < 20; i++ {
		if got := c.Classify(text); got != first {
			t.Fatalf("run %d: got %s, first run %s", i, got, first)
		}
	}
}

func TestWithMinScore_RaisesThreshold(t *testing.T) {
	t.Parallel()
	text := "x = None\n"
	if got := language.NewClassifier().Classify(text); got != model.LanguageGeneral {
		t.Fatalf("weak signal should stay General at default threshold, got %s", got)
	}
	strict := language.NewClassifier(language.WithMinScore(50))
	py := "import os\n\ndef main():\n    print(os.getcwd())\n"
	if got := strict.Classify(py); got != model.LanguageGeneral {
		t.Errorf("expected General under a high threshold, got %s", got)
	}
}
