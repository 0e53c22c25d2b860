package engine

import (
	"testing"

	"github.com/entrhq/prompt-engine/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestFormatter_Input(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		text string
		want string
	}{
		{"no affixes", DefaultConfig(), "hello", "hello\n"},
		{"prefix only", DefaultChatConfig(), "hello", "USER: hello\n"},
		{"prefix and postfix", JavaScriptConfig(), "Make a cube", "/* Make a cube */\n"},
		{"postfix only", Config{InputPostfix: "?", NewlineOperator: "\n"}, "why", "why ?\n"},
		{"empty newline", Config{InputPrefix: ">"}, "x", "> x"},
		{"custom newline", Config{InputPrefix: "Q:", NewlineOperator: "<br>"}, "x", "Q: x<br>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewFormatter(tt.cfg).Input(tt.text))
		})
	}
}

func TestFormatter_Output(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		text string
		want string
	}{
		{"no affixes", DefaultConfig(), "answer", "answer\n"},
		{"chat", DefaultChatConfig(), "answer", "BOT: answer\n"},
		{"code leaves output raw", JavaScriptConfig(), "makeCube();", "makeCube();\n"},
		{"postfix", Config{OutputPrefix: "<a>", OutputPostfix: "</a>", NewlineOperator: "\n"}, "x", "<a> x </a>\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewFormatter(tt.cfg).Output(tt.text))
		})
	}
}

func TestFormatter_Interactions(t *testing.T) {
	f := NewFormatter(DefaultChatConfig())
	list := []types.Interaction{
		{Input: "A", Response: "B"},
		{Input: "C", Response: "D"},
	}

	assert.Equal(t, "USER: A\nBOT: B\n\n", f.Interaction(list[0]))
	assert.Equal(t, "USER: A\nBOT: B\n\nUSER: C\nBOT: D\n\n", f.Interactions(list))
	assert.Equal(t, "", f.Interactions(nil))
}

func TestFormatter_Framed(t *testing.T) {
	assert.Equal(t, "D\n\n", NewFormatter(DefaultChatConfig()).Framed("D"))
	assert.Equal(t, "/* D */\n\n", NewFormatter(JavaScriptConfig()).Framed("D"))

	python, err := CodePreset(LanguagePython)
	assert.NoError(t, err)
	assert.Equal(t, "# D\n\n", NewFormatter(python).Framed("D"))
}

func TestFormatter_ResponseCue(t *testing.T) {
	chat := DefaultChatConfig()
	assert.Equal(t, "BOT: ", NewFormatter(chat).ResponseCue())

	chat.PromptNewlineEnd = true
	assert.Equal(t, "BOT:\n", NewFormatter(chat).ResponseCue())

	assert.Equal(t, "", NewFormatter(DefaultConfig()).ResponseCue())
}

func TestFormatter_IsDeterministic(t *testing.T) {
	f := NewFormatter(DefaultChatConfig())
	i := types.NewInteraction("same", "again")
	first := f.Interaction(i)
	for n := 0; n < 5; n++ {
		assert.Equal(t, first, f.Interaction(i))
	}
}
