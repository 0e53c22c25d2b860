package engine

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Default chat labels.
const (
	DefaultUserName = "USER"
	DefaultBotName  = "BOT"
)

// ChatPreset renders inputs as "<user>: text" and outputs as "<bot>: text".
func ChatPreset(userName, botName string) Config {
	cfg := DefaultConfig()
	cfg.InputPrefix = userName + ":"
	cfg.OutputPrefix = botName + ":"
	return cfg
}

// DefaultChatConfig is ChatPreset with the USER and BOT labels.
func DefaultChatConfig() Config {
	return ChatPreset(DefaultUserName, DefaultBotName)
}

// Language names a code preset.
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageGo         Language = "go"
	LanguagePython     Language = "python"
	LanguageShell      Language = "shell"
	LanguageSQL        Language = "sql"
	LanguageHTML       Language = "html"
)

// commentStyle is how a language writes natural language into code.
type commentStyle struct {
	open    string
	close   string
	pattern string
}

var languages = map[Language]commentStyle{
	LanguageJavaScript: {open: "/*", close: "*/", pattern: "*.{js,mjs,cjs,jsx}"},
	LanguageTypeScript: {open: "/*", close: "*/", pattern: "*.{ts,mts,cts,tsx}"},
	LanguageGo:         {open: "/*", close: "*/", pattern: "*.go"},
	LanguagePython:     {open: "#", pattern: "*.{py,pyw}"},
	LanguageShell:      {open: "#", pattern: "*.{sh,bash,zsh}"},
	LanguageSQL:        {open: "--", pattern: "*.sql"},
	LanguageHTML:       {open: "<!--", close: "-->", pattern: "*.{html,htm}"},
}

var languageGlobs = compileLanguageGlobs()

func compileLanguageGlobs() map[Language]glob.Glob {
	out := make(map[Language]glob.Glob, len(languages))
	for lang, style := range languages {
		out[lang] = glob.MustCompile(style.pattern)
	}
	return out
}

// CodePreset wraps natural language in the comment syntax of lang and emits
// responses as raw code followed by a blank line.
func CodePreset(lang Language) (Config, error) {
	style, ok := languages[lang]
	if !ok {
		return Config{}, fmt.Errorf("unknown language %q (known: %s)", lang, strings.Join(LanguageNames(), ", "))
	}
	cfg := DefaultConfig()
	cfg.DescriptionPrefix = style.open
	cfg.DescriptionPostfix = style.close
	cfg.InputPrefix = style.open
	cfg.InputPostfix = style.close
	return cfg, nil
}

// JavaScriptConfig is the default code preset.
func JavaScriptConfig() Config {
	cfg, _ := CodePreset(LanguageJavaScript)
	return cfg
}

// LanguageNames lists the known code presets in sorted order.
func LanguageNames() []string {
	names := make([]string, 0, len(languages))
	for lang := range languages {
		names = append(names, string(lang))
	}
	sort.Strings(names)
	return names
}

// LanguageForFile picks the code preset whose filename pattern matches the
// base name of path.
func LanguageForFile(path string) (Language, bool) {
	base := strings.ToLower(filepath.Base(path))
	for lang, g := range languageGlobs {
		if g.Match(base) {
			return lang, true
		}
	}
	return "", false
}
