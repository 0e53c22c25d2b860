package engine

import (
	"errors"
	"testing"

	"github.com/entrhq/prompt-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runeCounter makes one token per character so budgets in tests are exact.
var runeCounter = CharCounter{CharsPerToken: 1}

func newChat(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewChatEngine(append([]Option{WithTokenCounter(runeCounter)}, opts...)...)
	require.NoError(t, err)
	return e
}

func TestBuildContext_EmptyEngine(t *testing.T) {
	for _, kind := range []Kind{KindPrompt, KindChat, KindCode} {
		t.Run(string(kind), func(t *testing.T) {
			e, err := NewOfKind(kind)
			require.NoError(t, err)

			context, err := e.BuildContext("")
			require.NoError(t, err)
			assert.Equal(t, "", context)
		})
	}
}

func TestBuildPrompt_DescriptionOnly(t *testing.T) {
	e := newChat(t, WithDescription("D"))

	prompt, err := e.BuildPrompt("Hi")
	require.NoError(t, err)
	assert.Equal(t, "D\n\nUSER: Hi\n", prompt)
}

func TestBuildPrompt_DescriptionAndExamples(t *testing.T) {
	e := newChat(t, WithDescription("D"), WithExamples(types.NewInteraction("A", "B")))

	prompt, err := e.BuildPrompt("C")
	require.NoError(t, err)
	assert.Equal(t, "D\n\nUSER: A\nBOT: B\n\nUSER: C\n", prompt)
}

func TestBuildPrompt_KeepsOnlyNewestTurnThatFits(t *testing.T) {
	// fixed "D\n\nUSER: A\nBOT: B\n\n" = 19, input "USER: C\n" = 8,
	// each dialog turn = 16: one turn fits in 50, two need 59.
	e := newChat(t,
		WithDescription("D"),
		WithExamples(types.NewInteraction("A", "B")),
		WithMaxTokens(50),
	)
	e.AddInteraction("X", "Y")
	e.AddInteraction("Z", "W")

	prompt, err := e.BuildPrompt("C")
	require.NoError(t, err)
	assert.Equal(t, "D\n\nUSER: A\nBOT: B\n\nUSER: Z\nBOT: W\n\nUSER: C\n", prompt)
	assert.NotContains(t, prompt, "USER: X")
	assert.LessOrEqual(t, e.CountTokens(prompt), 50)

	require.NoError(t, e.UpdateConfig(ConfigOverride{MaxTokens: intPtr(59)}))
	prompt, err = e.BuildPrompt("C")
	require.NoError(t, err)
	assert.Equal(t, "D\n\nUSER: A\nBOT: B\n\nUSER: X\nBOT: Y\n\nUSER: Z\nBOT: W\n\nUSER: C\n", prompt)
}

func TestBuildContext_MultiTurnDisabled(t *testing.T) {
	e := newChat(t,
		WithDescription("D"),
		WithConfigOverride(ConfigOverride{MultiTurn: boolPtr(false)}),
	)
	e.AddInteraction("X", "Y")

	context, err := e.BuildContext("")
	require.NoError(t, err)
	assert.Equal(t, "D\n\n", context)

	asm, err := e.Assemble("")
	require.NoError(t, err)
	assert.Equal(t, 0, asm.DialogKept)
	assert.Equal(t, 1, asm.DialogDropped)

	// The per-call option overrides the config in both directions.
	context, err = e.BuildContext("", WithMultiTurn(true))
	require.NoError(t, err)
	assert.Equal(t, "D\n\nUSER: X\nBOT: Y\n\n", context)

	require.NoError(t, e.UpdateConfig(ConfigOverride{MultiTurn: boolPtr(true)}))
	context, err = e.BuildContext("", WithMultiTurn(false))
	require.NoError(t, err)
	assert.Equal(t, "D\n\n", context)
}

func TestBuildContext_FlowResetText(t *testing.T) {
	e := newChat(t,
		WithDescription("D"),
		WithExamples(types.NewInteraction("A", "B")),
		WithFlowResetText("Forget the earlier conversation"),
	)
	e.AddInteraction("X", "Y")

	context, err := e.BuildContext("")
	require.NoError(t, err)
	assert.Equal(t, "D\n\nUSER: A\nBOT: B\n\nForget the earlier conversation\n\nUSER: X\nBOT: Y\n\n", context)
}

func TestBuildContext_FlowResetUsesDescriptionAffixes(t *testing.T) {
	e, err := New(
		WithDescription("What is the possibility of an event happening?"),
		WithFlowResetText("Starting a new conversation"),
		WithConfigOverride(ConfigOverride{
			DescriptionPrefix:  strPtr(">>"),
			DescriptionPostfix: strPtr("!"),
			InputPrefix:        strPtr("Human:"),
			OutputPrefix:       strPtr("Bot:"),
		}),
	)
	require.NoError(t, err)
	e.AddExample("Roam around Mars", "This will be possible in a couple years")
	e.AddInteraction("Drink water", "Uhm...You don't do that 8 times a day?")

	context, err := e.BuildContext("")
	require.NoError(t, err)
	assert.Equal(t,
		">> What is the possibility of an event happening? !\n\n"+
			"Human: Roam around Mars\nBot: This will be possible in a couple years\n\n"+
			">> Starting a new conversation !\n\n"+
			"Human: Drink water\nBot: Uhm...You don't do that 8 times a day?\n\n",
		context)
}

func TestBuildContext_FixedContentOverflow(t *testing.T) {
	// "D\n\nUSER: A\nBOT: B\n\n" is 19 runes.
	e := newChat(t,
		WithDescription("D"),
		WithExamples(types.NewInteraction("A", "B")),
		WithMaxTokens(19),
	)
	e.AddInteraction("X", "Y")

	context, err := e.BuildContext("")
	require.NoError(t, err, "fixed content alone fits exactly")
	assert.Equal(t, "D\n\nUSER: A\nBOT: B\n\n", context, "dialog does not fit")

	_, err = e.BuildPrompt("C")
	require.Error(t, err, "pending input counts against the fixed budget")
	assert.True(t, errors.Is(err, ErrContextOverflow))

	var overflow *ContextOverflowError
	require.True(t, errors.As(err, &overflow))
	assert.Equal(t, 27, overflow.Tokens)
	assert.Equal(t, 19, overflow.MaxTokens)
}

func TestBuildContext_OverflowIsReportedWithoutDialog(t *testing.T) {
	e := newChat(t, WithDescription("a description longer than the budget"), WithMaxTokens(5))

	_, err := e.BuildContext("")
	assert.ErrorIs(t, err, ErrContextOverflow)

	_, err = e.ResetContext()
	assert.ErrorIs(t, err, ErrContextOverflow)
}

func TestBuildContext_DoesNotMutateDialog(t *testing.T) {
	e := newChat(t, WithMaxTokens(20))
	e.AddInteractions(
		types.NewInteraction("first question", "first answer"),
		types.NewInteraction("second question", "second answer"),
	)
	before := e.Dialog()

	_, err := e.BuildPrompt("third")
	require.NoError(t, err)
	assert.Equal(t, before, e.Dialog())
}

func TestAssemble_Stats(t *testing.T) {
	e := newChat(t, WithMaxTokens(50))
	e.AddInteractions(
		types.NewInteraction("1", "a"),
		types.NewInteraction("2", "b"),
		types.NewInteraction("3", "c"),
		types.NewInteraction("4", "d"),
	)

	// Each turn is 16 runes; pending "USER: 5\n" is 8: 8+16+16 = 40 fits, 56 does not.
	asm, err := e.Assemble(e.Formatter().Input("5"))
	require.NoError(t, err)
	assert.Equal(t, 2, asm.DialogKept)
	assert.Equal(t, 2, asm.DialogDropped)
	assert.Equal(t, 40, asm.Tokens)
	assert.Equal(t, "USER: 3\nBOT: c\n\nUSER: 4\nBOT: d\n\n", asm.Context)
}

func TestBuildDialogIsUntruncated(t *testing.T) {
	e := newChat(t, WithMaxTokens(1))
	e.AddInteractions(
		types.NewInteraction("1", "a"),
		types.NewInteraction("2", "b"),
	)

	assert.Equal(t, "USER: 1\nBOT: a\n\nUSER: 2\nBOT: b\n\n", e.BuildDialog())
}

func TestResetContext(t *testing.T) {
	e := newChat(t, WithDescription("D"), WithExamples(types.NewInteraction("A", "B")))
	e.AddInteraction("X", "Y")

	context, err := e.ResetContext()
	require.NoError(t, err)
	assert.Equal(t, "D\n\nUSER: A\nBOT: B\n\n", context)
	assert.Empty(t, e.Dialog())
	assert.Len(t, e.Examples(), 1)
}

func TestBuildPrompt_ResponseCue(t *testing.T) {
	e := newChat(t)

	prompt, err := e.BuildPrompt("Make a cube", WithResponseCue())
	require.NoError(t, err)
	assert.Equal(t, "USER: Make a cube\nBOT: ", prompt)

	require.NoError(t, e.UpdateConfig(ConfigOverride{PromptNewlineEnd: boolPtr(true)}))
	prompt, err = e.BuildPrompt("Make a cube", WithResponseCue())
	require.NoError(t, err)
	assert.Equal(t, "USER: Make a cube\nBOT:\n", prompt)
}

func TestBuildPrompt_ResponseCueCountsAgainstBudget(t *testing.T) {
	// "USER: q\n" = 8, cue "BOT: " = 5, turn "USER: x\nBOT: y\n\n" = 16.
	e := newChat(t, WithMaxTokens(24))
	e.AddInteraction("x", "y")

	prompt, err := e.BuildPrompt("q")
	require.NoError(t, err)
	assert.Equal(t, "USER: x\nBOT: y\n\nUSER: q\n", prompt)

	prompt, err = e.BuildPrompt("q", WithResponseCue())
	require.NoError(t, err)
	assert.Equal(t, "USER: q\nBOT: ", prompt)
}

func TestChatEngine_Conversation(t *testing.T) {
	description := "The following is a conversation with a bot about shapes"
	e := newChat(t,
		WithDescription(description),
		WithExamples(
			types.NewInteraction("What is a cube?", "a symmetrical three-dimensional shape"),
			types.NewInteraction("What is a sphere?", "a round solid figure"),
		),
	)

	prompt, err := e.BuildPrompt("what is a rectangle", WithResponseCue())
	require.NoError(t, err)
	assert.Equal(t, description+"\n\n"+
		"USER: What is a cube?\nBOT: a symmetrical three-dimensional shape\n\n"+
		"USER: What is a sphere?\nBOT: a round solid figure\n\n"+
		"USER: what is a rectangle\nBOT: ", prompt)

	e.AddInteraction("what is a rectangle", "a rectangle is a rectangle")
	prompt, err = e.BuildPrompt("what is a cylinder", WithResponseCue())
	require.NoError(t, err)
	assert.Equal(t, description+"\n\n"+
		"USER: What is a cube?\nBOT: a symmetrical three-dimensional shape\n\n"+
		"USER: What is a sphere?\nBOT: a round solid figure\n\n"+
		"USER: what is a rectangle\nBOT: a rectangle is a rectangle\n\n"+
		"USER: what is a cylinder\nBOT: ", prompt)
}

func TestCodeEngine_Prompts(t *testing.T) {
	description := "Natural Language Commands to Math Code"
	e, err := NewCodeEngine(LanguageJavaScript,
		WithTokenCounter(runeCounter),
		WithDescription(description),
		WithExamples(
			types.NewInteraction("what's 10 plus 18", "console.log(10 + 18);"),
			types.NewInteraction("what's 10 times 18", "console.log(10 * 18);"),
		),
	)
	require.NoError(t, err)

	header := "/* " + description + " */\n\n" +
		"/* what's 10 plus 18 */\nconsole.log(10 + 18);\n\n" +
		"/* what's 10 times 18 */\nconsole.log(10 * 18);\n\n"

	prompt, err := e.BuildPrompt("what's 18 divided by 10")
	require.NoError(t, err)
	assert.Equal(t, header+"/* what's 18 divided by 10 */\n", prompt)

	e.AddInteraction("what's 18 divided by 10", "console.log(18 / 10);")
	e.AddInteraction("what's 18 factorial 10", "console.log(18 % 10);")
	prompt, err = e.BuildPrompt("what's 18 to the power of 10")
	require.NoError(t, err)
	assert.Equal(t, header+
		"/* what's 18 divided by 10 */\nconsole.log(18 / 10);\n\n"+
		"/* what's 18 factorial 10 */\nconsole.log(18 % 10);\n\n"+
		"/* what's 18 to the power of 10 */\n", prompt)

	e.RemoveLastInteraction()
	prompt, err = e.BuildPrompt("make a torus")
	require.NoError(t, err)
	assert.Equal(t, header+
		"/* what's 18 divided by 10 */\nconsole.log(18 / 10);\n\n"+
		"/* make a torus */\n", prompt)
}

func TestCodeEngine_TruncatesOldestDialogFirst(t *testing.T) {
	e, err := NewCodeEngine(LanguageJavaScript,
		WithTokenCounter(runeCounter),
		WithDescription("Math"),
	)
	require.NoError(t, err)
	e.AddInteraction("what's 18 divided by 10", "console.log(18 / 10);")
	e.AddInteraction("what's 18 factorial 10", "console.log(18 % 10);")

	header := "/* Math */\n\n"
	newest := "/* what's 18 factorial 10 */\nconsole.log(18 % 10);\n\n"
	input := "/* what's 18 to the power of 10 */\n"
	budget := len(header) + len(newest) + len(input)
	require.NoError(t, e.UpdateConfig(ConfigOverride{MaxTokens: intPtr(budget)}))

	prompt, err := e.BuildPrompt("what's 18 to the power of 10")
	require.NoError(t, err)
	assert.Equal(t, header+newest+input, prompt)
}

// dialogSuffix returns the formatted last n turns of dialog.
func dialogSuffix(e *Engine, n int) string {
	d := e.Dialog()
	return e.Formatter().Interactions(d[len(d)-n:])
}

func TestAssemble_BudgetProperties(t *testing.T) {
	e := newChat(t, WithDescription("Budget test"), WithExamples(types.NewInteraction("ex", "ample")))
	e.AddInteractions(
		types.NewInteraction("short", "s"),
		types.NewInteraction("a considerably longer question", "and a longer answer to go with it"),
		types.NewInteraction("mid sized", "reply"),
		types.NewInteraction("q", "a"),
		types.NewInteraction("another question of some length", "ok"),
		types.NewInteraction("last", "one"),
	)
	pending := e.Formatter().Input("next")
	fixed, err := e.BuildContext(pending, WithMultiTurn(false))
	require.NoError(t, err)
	fixedTokens := e.CountTokens(fixed + pending)
	fullTokens := e.CountTokens(fixed + e.BuildDialog() + pending)

	prevKept := len(e.Dialog())
	for budget := fullTokens + 10; budget >= fixedTokens; budget-- {
		require.NoError(t, e.UpdateConfig(ConfigOverride{MaxTokens: intPtr(budget)}))

		asm, err := e.Assemble(pending)
		require.NoError(t, err, "budget %d", budget)

		// Smaller budgets never keep more turns.
		assert.LessOrEqual(t, asm.DialogKept, prevKept, "budget %d", budget)
		prevKept = asm.DialogKept

		// Kept turns are exactly the newest DialogKept ones, in order.
		assert.Equal(t, fixed+dialogSuffix(e, asm.DialogKept), asm.Context, "budget %d", budget)
		assert.LessOrEqual(t, asm.Tokens, budget)
		assert.Equal(t, len(e.Dialog()), asm.DialogKept+asm.DialogDropped)
	}
	assert.Equal(t, 0, prevKept)

	require.NoError(t, e.UpdateConfig(ConfigOverride{MaxTokens: intPtr(fixedTokens - 1)}))
	_, err = e.Assemble(pending)
	assert.ErrorIs(t, err, ErrContextOverflow)
}

func TestAssemble_StopsAtFirstTurnThatDoesNotFit(t *testing.T) {
	// The middle turn is too big; the short oldest turn must not be
	// included past it even though it would fit on its own.
	e := newChat(t, WithMaxTokens(60))
	e.AddInteractions(
		types.NewInteraction("o", "o"),
		types.NewInteraction("this middle turn is far too long to fit", "really"),
		types.NewInteraction("n", "n"),
	)

	asm, err := e.Assemble("")
	require.NoError(t, err)
	assert.Equal(t, 1, asm.DialogKept)
	assert.Equal(t, "USER: n\nBOT: n\n\n", asm.Context)
}

func TestCharCounter(t *testing.T) {
	tests := []struct {
		name string
		cpt  int
		text string
		want int
	}{
		{"empty", 4, "", 0},
		{"default ratio", 0, "abcd", 1},
		{"rounds up", 4, "abcde", 2},
		{"one per rune", 1, "héllo", 5},
		{"negative uses default", -1, "abcdefgh", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CharCounter{CharsPerToken: tt.cpt}.CountTokens(tt.text))
		})
	}
}
