package main

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/prompt-engine/pkg/engine"
)

var (
	accent = lipgloss.Color("#FFB3BA")
	mint   = lipgloss.Color("#A8E6CF")
	muted  = lipgloss.Color("#6B7280")

	headerStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	tipsStyle = lipgloss.NewStyle().
			Foreground(muted)

	replyStyle = lipgloss.NewStyle().
			Foreground(mint)

	errorStyle = lipgloss.NewStyle().
			Foreground(accent)

	promptBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)
)

// chromaLexers maps code presets to chroma lexer names where they differ.
var chromaLexers = map[engine.Language]string{
	engine.LanguageShell: "bash",
}

// renderer formats REPL output. lang is the code preset of the engine, empty
// for chat and plain engines.
type renderer struct {
	lang engine.Language
}

func newRenderer(lang engine.Language) *renderer {
	return &renderer{lang: lang}
}

func (r *renderer) banner(eng *engine.Engine) string {
	kind := string(eng.Kind())
	if r.lang != "" {
		kind += " (" + string(r.lang) + ")"
	}
	return headerStyle.Render("prompt-engine v"+version) + " " + tipsStyle.Render(kind) + "\n" +
		tipsStyle.Render("Type a message, or :help for commands.")
}

// reply renders a model reply. Code replies are syntax highlighted.
func (r *renderer) reply(text string) string {
	if r.lang == "" {
		return replyStyle.Render(text)
	}

	lexer := string(r.lang)
	if name, ok := chromaLexers[r.lang]; ok {
		lexer = name
	}

	var b strings.Builder
	if err := quick.Highlight(&b, text, lexer, "terminal256", "monokai"); err != nil {
		return text
	}
	return b.String()
}

func (r *renderer) errorf(format string, args ...any) string {
	return errorStyle.Render("Error: " + fmt.Sprintf(format, args...))
}

func (r *renderer) info(text string) string {
	return tipsStyle.Render(text)
}

// block renders multi-line text such as a context or dialog dump.
func (r *renderer) block(title, text string) string {
	if text == "" {
		text = "(empty)"
	}
	return headerStyle.Render(title) + "\n" + promptBoxStyle.Render(strings.TrimRight(text, "\n"))
}

// stats summarizes how the last prompt used the budget.
func (r *renderer) stats(asm *engine.Assembly, maxTokens int) string {
	return tipsStyle.Render(fmt.Sprintf("%d/%d tokens, %d dialog turns kept, %d dropped",
		asm.Tokens, maxTokens, asm.DialogKept, asm.DialogDropped))
}
