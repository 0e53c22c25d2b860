package engine

import (
	"testing"

	"github.com/entrhq/prompt-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	assert.Equal(t, KindPrompt, e.Kind())
	assert.Equal(t, DefaultConfig(), e.Config())
	assert.NotNil(t, e.TokenCounter())
	assert.Empty(t, e.Examples())
	assert.Empty(t, e.Dialog())
}

func TestNew_InvalidMaxTokens(t *testing.T) {
	_, err := New(WithMaxTokens(0))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewOfKind(t *testing.T) {
	tests := []struct {
		kind       Kind
		wantPrefix string
		wantErr    bool
	}{
		{KindPrompt, "", false},
		{"", "", false},
		{KindChat, "USER:", false},
		{KindCode, "/*", false},
		{"poem-engine", "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			e, err := NewOfKind(tt.kind)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrefix, e.Config().InputPrefix)
		})
	}
}

func TestNewCodeEngine_UnknownLanguage(t *testing.T) {
	_, err := NewCodeEngine("brainfuck")
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	counter := TokenCounterFunc(func(string) int { return 1 })
	e, err := NewChatEngine(
		WithDescription("desc"),
		WithExamples(types.NewInteraction("a", "b")),
		WithFlowResetText("reset"),
		WithDialog(types.NewInteraction("c", "d")),
		WithConfigOverride(ConfigOverride{InputPrefix: strPtr("Human:")}),
		WithMaxTokens(99),
		WithTokenCounter(counter),
	)
	require.NoError(t, err)

	assert.Equal(t, KindChat, e.Kind())
	assert.Equal(t, "desc", e.Description())
	assert.Equal(t, "reset", e.FlowResetText())
	assert.Equal(t, []types.Interaction{{Input: "a", Response: "b"}}, e.Examples())
	assert.Equal(t, []types.Interaction{{Input: "c", Response: "d"}}, e.Dialog())
	assert.Equal(t, "Human:", e.Config().InputPrefix)
	assert.Equal(t, "BOT:", e.Config().OutputPrefix)
	assert.Equal(t, 99, e.Config().MaxTokens)
	assert.Equal(t, 1, e.CountTokens("anything"))
}

func TestWithTokenCounter_NilFallsBack(t *testing.T) {
	e, err := New(WithTokenCounter(nil))
	require.NoError(t, err)
	assert.Equal(t, 1, e.CountTokens("abcd"))
}

func TestAddInteractions(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	e.AddInteraction("1", "one")
	e.AddInteractions(
		types.NewInteraction("2", "two"),
		types.NewInteraction("2", "two"),
	)

	assert.Equal(t, []types.Interaction{
		{Input: "1", Response: "one"},
		{Input: "2", Response: "two"},
		{Input: "2", Response: "two"},
	}, e.Dialog(), "order is preserved and duplicates are legal")
}

func TestRemoveInteractions(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	e.AddInteractions(
		types.NewInteraction("1", "one"),
		types.NewInteraction("2", "two"),
		types.NewInteraction("3", "three"),
	)

	first, ok := e.RemoveFirstInteraction()
	assert.True(t, ok)
	assert.Equal(t, "1", first.Input)

	last, ok := e.RemoveLastInteraction()
	assert.True(t, ok)
	assert.Equal(t, "3", last.Input)

	assert.Equal(t, []types.Interaction{{Input: "2", Response: "two"}}, e.Dialog())
}

func TestRemoveInteractions_EmptyIsNoop(t *testing.T) {
	e, err := New(WithDescription("keep me"))
	require.NoError(t, err)
	before := e.State()

	assert.NotPanics(t, func() {
		_, ok := e.RemoveFirstInteraction()
		assert.False(t, ok)
		_, ok = e.RemoveLastInteraction()
		assert.False(t, ok)
		_, ok = e.RemoveLastInteraction()
		assert.False(t, ok)
	})

	assert.Equal(t, before, e.State())
}

func TestAddExample(t *testing.T) {
	e, err := NewCodeEngine(LanguageJavaScript)
	require.NoError(t, err)

	e.AddExample("Make a cube", "makeCube();")
	e.AddExamples(types.NewInteraction("Make a sphere", "makeSphere();"))

	assert.Equal(t, []types.Interaction{
		{Input: "Make a cube", Response: "makeCube();"},
		{Input: "Make a sphere", Response: "makeSphere();"},
	}, e.Examples())
	assert.Empty(t, e.Dialog())
}

func TestAccessorsReturnCopies(t *testing.T) {
	e, err := New(WithExamples(types.NewInteraction("a", "b")), WithDialog(types.NewInteraction("c", "d")))
	require.NoError(t, err)

	examples := e.Examples()
	examples[0].Input = "mutated"
	dialog := e.Dialog()
	dialog[0].Input = "mutated"

	assert.Equal(t, "a", e.Examples()[0].Input)
	assert.Equal(t, "c", e.Dialog()[0].Input)
}

func TestSetConfig(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	bad := DefaultConfig()
	bad.MaxTokens = -1
	assert.ErrorIs(t, e.SetConfig(bad), ErrInvalidConfig)
	assert.Equal(t, DefaultMaxTokens, e.Config().MaxTokens, "invalid config is not applied")

	require.NoError(t, e.UpdateConfig(ConfigOverride{MaxTokens: intPtr(10), OutputPrefix: strPtr("A:")}))
	assert.Equal(t, 10, e.Config().MaxTokens)
	assert.Equal(t, "A:", e.Config().OutputPrefix)

	assert.Error(t, e.UpdateConfig(ConfigOverride{MaxTokens: intPtr(0)}))
	assert.Equal(t, 10, e.Config().MaxTokens)
}

func TestSettersForFixedContent(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	e.SetDescription("new description")
	e.SetFlowResetText("new reset")
	assert.Equal(t, "new description", e.Description())
	assert.Equal(t, "new reset", e.FlowResetText())

	e.SetFlowResetText("")
	assert.Empty(t, e.FlowResetText())
}

func TestStateAndRestore(t *testing.T) {
	src, err := NewChatEngine(
		WithDescription("D"),
		WithExamples(types.NewInteraction("A", "B")),
		WithFlowResetText("R"),
		WithDialog(types.NewInteraction("C", "E")),
		WithMaxTokens(512),
	)
	require.NoError(t, err)

	state := src.State()
	assert.Equal(t, KindChat, state.Kind)

	dst, err := NewChatEngine()
	require.NoError(t, err)
	require.NoError(t, dst.Restore(state))
	assert.Equal(t, state, dst.State())

	// Mutating the restored engine leaves the state value untouched.
	dst.AddInteraction("x", "y")
	assert.Len(t, state.Dialog, 1)
}

func TestRestore_InvalidConfigChangesNothing(t *testing.T) {
	e, err := New(WithDescription("original"))
	require.NoError(t, err)
	before := e.State()

	state := before
	state.Description = "replacement"
	state.Config.MaxTokens = 0

	assert.ErrorIs(t, e.Restore(state), ErrInvalidConfig)
	assert.Equal(t, before, e.State())
}

func TestRestore_KeepsKind(t *testing.T) {
	e, err := NewChatEngine()
	require.NoError(t, err)

	state := e.State()
	state.Kind = KindCode
	require.NoError(t, e.Restore(state))
	assert.Equal(t, KindChat, e.Kind())
}
