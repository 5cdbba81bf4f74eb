package language

import "testing"

func Test_DetectLanguage_GoFile(t *testing.T) {
	if lang := DetectLanguage("main.go"); lang != Go {
		t.Errorf("expected Go, got %s", lang)
	}
}

func Test_DetectLanguage_TypeScriptFile(t *testing.T) {
	if lang := DetectLanguage("src/components/App.tsx"); lang != TypeScript {
		t.Errorf("expected TypeScript, got %s", lang)
	}
}

func Test_DetectLanguage_Makefile(t *testing.T) {
	if lang := DetectLanguage("Makefile"); lang != Makefile {
		t.Errorf("expected Makefile, got %s", lang)
	}
}

func Test_DetectLanguage_UnknownExtension(t *testing.T) {
	if lang := DetectLanguage("data.xyz"); lang != Unknown {
		t.Errorf("expected Unknown, got %s", lang)
	}
}

func Test_DetectLanguage_CaseInsensitive(t *testing.T) {
	if lang := DetectLanguage("README.MD"); lang != Markdown {
		t.Errorf("expected Markdown, got %s", lang)
	}
}

func Test_Tag_Families(t *testing.T) {
	if !SCSS.IsStyleSheet() || Go.IsStyleSheet() {
		t.Error("unexpected stylesheet classification")
	}
	if !Vue.IsScript() || !TypeScript.IsScript() || Python.IsScript() {
		t.Error("unexpected script classification")
	}
}
