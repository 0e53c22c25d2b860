package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int { return &i }
func boolPtr(b bool) *bool { return &b }

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "\n", cfg.NewlineOperator)
	assert.Equal(t, DefaultMaxTokens, cfg.MaxTokens)
	assert.True(t, cfg.MultiTurn)
	assert.False(t, cfg.PromptNewlineEnd)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		maxTokens int
		wantErr   bool
	}{
		{"positive", 1, false},
		{"zero", 0, true},
		{"negative", -10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MaxTokens = tt.maxTokens
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_Merge(t *testing.T) {
	base := DefaultChatConfig()

	tests := []struct {
		name     string
		override ConfigOverride
		check    func(t *testing.T, got Config)
	}{
		{
			name:     "empty override keeps base",
			override: ConfigOverride{},
			check: func(t *testing.T, got Config) {
				assert.Equal(t, base, got)
			},
		},
		{
			name:     "present fields replace base",
			override: ConfigOverride{InputPrefix: strPtr("Human:"), MaxTokens: intPtr(100)},
			check: func(t *testing.T, got Config) {
				assert.Equal(t, "Human:", got.InputPrefix)
				assert.Equal(t, 100, got.MaxTokens)
				assert.Equal(t, "BOT:", got.OutputPrefix)
				assert.True(t, got.MultiTurn)
			},
		},
		{
			name:     "explicit empty string clears a field",
			override: ConfigOverride{OutputPrefix: strPtr("")},
			check: func(t *testing.T, got Config) {
				assert.Equal(t, "", got.OutputPrefix)
				assert.Equal(t, "USER:", got.InputPrefix)
			},
		},
		{
			name: "booleans can be switched off",
			override: ConfigOverride{
				MultiTurn:        boolPtr(false),
				PromptNewlineEnd: boolPtr(true),
			},
			check: func(t *testing.T, got Config) {
				assert.False(t, got.MultiTurn)
				assert.True(t, got.PromptNewlineEnd)
			},
		},
		{
			name: "every affix",
			override: ConfigOverride{
				DescriptionPrefix:  strPtr("<d>"),
				DescriptionPostfix: strPtr("</d>"),
				InputPostfix:       strPtr("</i>"),
				OutputPostfix:      strPtr("</o>"),
				NewlineOperator:    strPtr("\r\n"),
			},
			check: func(t *testing.T, got Config) {
				assert.Equal(t, "<d>", got.DescriptionPrefix)
				assert.Equal(t, "</d>", got.DescriptionPostfix)
				assert.Equal(t, "</i>", got.InputPostfix)
				assert.Equal(t, "</o>", got.OutputPostfix)
				assert.Equal(t, "\r\n", got.NewlineOperator)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base.Merge(tt.override)
			tt.check(t, got)
		})
	}

	assert.Equal(t, DefaultChatConfig(), base, "merge must not modify the base")
}

func TestConfigOverride_IsEmpty(t *testing.T) {
	assert.True(t, ConfigOverride{}.IsEmpty())
	assert.False(t, ConfigOverride{MultiTurn: boolPtr(true)}.IsEmpty())
}
