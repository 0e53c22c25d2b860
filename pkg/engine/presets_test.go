package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatPreset(t *testing.T) {
	cfg := ChatPreset("Abhishek", "Bot")
	assert.Equal(t, "Abhishek:", cfg.InputPrefix)
	assert.Equal(t, "Bot:", cfg.OutputPrefix)
	assert.Empty(t, cfg.DescriptionPrefix)
	assert.Equal(t, "\n", cfg.NewlineOperator)
}

func TestCodePreset(t *testing.T) {
	tests := []struct {
		lang      Language
		wantOpen  string
		wantClose string
	}{
		{LanguageJavaScript, "/*", "*/"},
		{LanguageTypeScript, "/*", "*/"},
		{LanguageGo, "/*", "*/"},
		{LanguagePython, "#", ""},
		{LanguageShell, "#", ""},
		{LanguageSQL, "--", ""},
		{LanguageHTML, "<!--", "-->"},
	}

	for _, tt := range tests {
		t.Run(string(tt.lang), func(t *testing.T) {
			cfg, err := CodePreset(tt.lang)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOpen, cfg.InputPrefix)
			assert.Equal(t, tt.wantClose, cfg.InputPostfix)
			assert.Equal(t, tt.wantOpen, cfg.DescriptionPrefix)
			assert.Equal(t, tt.wantClose, cfg.DescriptionPostfix)
			assert.Empty(t, cfg.OutputPrefix)
		})
	}

	_, err := CodePreset("cobol")
	assert.Error(t, err)
}

func TestLanguageForFile(t *testing.T) {
	tests := []struct {
		path   string
		want   Language
		wantOK bool
	}{
		{"index.js", LanguageJavaScript, true},
		{"src/App.jsx", LanguageJavaScript, true},
		{"lib/util.ts", LanguageTypeScript, true},
		{"view.tsx", LanguageTypeScript, true},
		{"cmd/main.go", LanguageGo, true},
		{"script.py", LanguagePython, true},
		{"deploy.sh", LanguageShell, true},
		{"schema.SQL", LanguageSQL, true},
		{"index.html", LanguageHTML, true},
		{"README.md", "", false},
		{"Makefile", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := LanguageForFile(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLanguageNames(t *testing.T) {
	names := LanguageNames()
	assert.Len(t, names, 7)
	assert.IsIncreasing(t, names)
}
