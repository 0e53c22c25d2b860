// Package main provides prompt-engine, an interactive terminal client that
// builds few-shot prompts within a token budget and sends them to an
// OpenAI-compatible model.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"

	appconfig "github.com/entrhq/prompt-engine/pkg/config"
	"github.com/entrhq/prompt-engine/pkg/engine"
	"github.com/entrhq/prompt-engine/pkg/llm/openai"
	"github.com/entrhq/prompt-engine/pkg/llm/tokenizer"
	"github.com/entrhq/prompt-engine/pkg/logging"
	"github.com/entrhq/prompt-engine/pkg/session"
	"github.com/entrhq/prompt-engine/pkg/snapshot"
)

const (
	version      = "0.1.0"             // Version of prompt-engine
	defaultModel = openai.DefaultModel // Default model to use
)

// Config holds the application configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	ConfigPath  string
	Snapshot    string
	Kind        string
	Language    string
	File        string
	Description string
	MaxTokens   int
	ResponseCue bool
	PrintOnly   bool
	Copy        bool
	LogLevel    string
	ShowVersion bool
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("prompt-engine v%s\n", version)
		return
	}

	if err := config.validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	if runErr := run(ctx, config, flag.Args()); runErr != nil {
		cancel()
		log.Fatalf("Application error: %v", runErr)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.APIKey, "api-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
	flag.StringVar(&config.BaseURL, "base-url", "", "OpenAI API base URL (or set OPENAI_BASE_URL env var)")
	flag.StringVar(&config.Model, "model", "", "LLM model to use (default "+defaultModel+")")
	flag.StringVar(&config.ConfigPath, "config", "", "Config file (default ~/.prompt-engine/config.json)")
	flag.StringVar(&config.Snapshot, "snapshot", "", "Snapshot file to load on start and save to with :save")
	flag.StringVar(&config.Kind, "kind", "", "Engine preset: plain, chat or code (default from config, chat)")
	flag.StringVar(&config.Language, "language", "", "Code preset language: "+strings.Join(engine.LanguageNames(), ", "))
	flag.StringVar(&config.File, "file", "", "Pick the code preset language from a file name")
	flag.StringVar(&config.Description, "description", "", "Task description placed at the top of every prompt")
	flag.IntVar(&config.MaxTokens, "max-tokens", 0, "Token budget for the prompt (default from config, 4096)")
	flag.BoolVar(&config.ResponseCue, "response-cue", false, "End prompts with the output label, e.g. \"BOT: \"")
	flag.BoolVar(&config.PrintOnly, "print-only", false, "Print the prompt for the input given as arguments or on stdin and exit")
	flag.BoolVar(&config.Copy, "copy", false, "Copy the printed prompt to the clipboard (with -print-only)")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "prompt-engine - few-shot prompts within a token budget\n\n")
		fmt.Fprintf(os.Stderr, "Usage: prompt-engine [options] [input]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY          OpenAI API key\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_BASE_URL         OpenAI API base URL (for compatible APIs)\n")
		fmt.Fprintf(os.Stderr, "  PROMPT_ENGINE_CONFIG    Config file location\n")
		fmt.Fprintf(os.Stderr, "  PROMPT_ENGINE_LOG_DIR   Log directory\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  prompt-engine -description \"A bot that explains shapes\"\n")
		fmt.Fprintf(os.Stderr, "  prompt-engine -kind code -file query.sql -description \"Queries over the users table\"\n")
		fmt.Fprintf(os.Stderr, "  prompt-engine -snapshot shapes.yaml\n")
		fmt.Fprintf(os.Stderr, "  prompt-engine -snapshot shapes.yaml -print-only -copy \"What is a cone?\"\n")
	}

	flag.Parse()
	return config
}

// validate checks that the configuration is valid
func (c *Config) validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Kind {
	case "", appconfig.PresetPlain, appconfig.PresetChat, appconfig.PresetCode:
	default:
		return fmt.Errorf("unknown kind %q (use plain, chat or code)", c.Kind)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max tokens must not be negative")
	}
	if c.Copy && !c.PrintOnly {
		return fmt.Errorf("-copy only applies with -print-only; use :copy in the REPL")
	}
	return nil
}

// run executes the main application logic
func run(ctx context.Context, config *Config, args []string) error {
	level, _ := logging.ParseLevel(config.LogLevel)
	logging.SetLevel(level)

	if err := appconfig.Initialize(config.ConfigPath); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	model := config.Model
	if model == "" {
		if llmSection := appconfig.GetLLM(); llmSection != nil && llmSection.GetModel() != "" {
			model = llmSection.GetModel()
		} else {
			model = defaultModel
		}
	}

	eng, lang, err := buildEngine(config, model)
	if err != nil {
		return err
	}

	responseCue := config.ResponseCue
	if prompt := appconfig.GetPrompt(); prompt != nil && prompt.GetResponseCue() {
		responseCue = true
	}

	if config.PrintOnly {
		return printPrompt(config, eng, responseCue, args)
	}

	provider, err := appconfig.BuildProvider(appconfig.ProviderFlags{
		Model:   model,
		BaseURL: config.BaseURL,
		APIKey:  config.APIKey,
	}, defaultModel)
	if err != nil {
		return err
	}

	sess, err := session.New(eng, provider, sessionOptions(responseCue)...)
	if err != nil {
		return err
	}

	r := newREPL(sess, os.Stdin, os.Stdout, newRenderer(lang))
	r.snapshotPath = config.Snapshot
	r.copy = clipboard.WriteAll
	if len(args) > 0 {
		r.pending = strings.Join(args, " ")
	}
	return r.run(ctx)
}

// buildEngine loads the snapshot if one exists, or builds an engine from
// flags and the prompt section of the config file. It also returns the code
// language used for highlighting replies, empty for non-code engines.
func buildEngine(config *Config, model string) (*engine.Engine, engine.Language, error) {
	opts := []engine.Option{}
	if tok, err := tokenizer.NewForModel(model); err == nil {
		opts = append(opts, engine.WithTokenCounter(tok))
	} else {
		log.Printf("Token counting falls back to a character estimate: %v", err)
	}

	promptSection := appconfig.GetPrompt()
	if promptSection == nil {
		promptSection = appconfig.NewPromptSection()
	}
	if err := promptSection.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid prompt settings: %w", err)
	}

	lang := engine.Language(config.Language)
	if lang == "" && config.File != "" {
		detected, ok := engine.LanguageForFile(config.File)
		if !ok {
			return nil, "", fmt.Errorf("no code preset matches %s (known: %s)", config.File, strings.Join(engine.LanguageNames(), ", "))
		}
		lang = detected
	}
	if lang == "" {
		lang = promptSection.GetLanguage()
	}

	if config.Snapshot != "" {
		if _, err := os.Stat(config.Snapshot); err == nil {
			eng, err := snapshot.Open(config.Snapshot, opts...)
			if err != nil {
				return nil, "", err
			}
			if err := applyFlags(eng, config); err != nil {
				return nil, "", err
			}
			if eng.Kind() != engine.KindCode {
				lang = ""
			}
			return eng, lang, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("failed to stat snapshot: %w", err)
		}
	}

	kind := promptSection.Kind()
	switch {
	case config.Kind == appconfig.PresetPlain:
		kind = engine.KindPrompt
	case config.Kind == appconfig.PresetChat:
		kind = engine.KindChat
	case config.Kind == appconfig.PresetCode, config.File != "", config.Language != "":
		kind = engine.KindCode
	}

	opts = append(opts, engine.WithConfigOverride(promptSection.Override()))

	var eng *engine.Engine
	var err error
	if kind == engine.KindCode {
		eng, err = engine.NewCodeEngine(lang, opts...)
	} else {
		eng, err = engine.NewOfKind(kind, opts...)
		lang = ""
	}
	if err != nil {
		return nil, "", err
	}
	if err := applyFlags(eng, config); err != nil {
		return nil, "", err
	}
	return eng, lang, nil
}

// applyFlags applies settings given on the command line over whatever the
// engine was built or loaded with.
func applyFlags(eng *engine.Engine, config *Config) error {
	if config.Description != "" {
		eng.SetDescription(config.Description)
	}
	if config.MaxTokens > 0 {
		maxTokens := config.MaxTokens
		return eng.UpdateConfig(engine.ConfigOverride{MaxTokens: &maxTokens})
	}
	return nil
}

func sessionOptions(responseCue bool) []session.Option {
	opts := []session.Option{session.WithResponseCue(responseCue)}
	llmSection := appconfig.GetLLM()
	if llmSection == nil {
		return opts
	}
	if temperature, ok := llmSection.GetTemperature(); ok {
		opts = append(opts, session.WithTemperature(temperature))
	}
	if n := llmSection.GetMaxCompletionTokens(); n > 0 {
		opts = append(opts, session.WithMaxCompletionTokens(n))
	}
	return opts
}

// printPrompt prints the prompt for the input in args, or for stdin when
// args is empty, without calling a model.
func printPrompt(config *Config, eng *engine.Engine, responseCue bool, args []string) error {
	input := strings.Join(args, " ")
	if input == "" {
		var lines []string
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		input = strings.TrimSpace(strings.Join(lines, "\n"))
	}

	var opts []engine.BuildOption
	if responseCue {
		opts = append(opts, engine.WithResponseCue())
	}
	prompt, err := eng.BuildPrompt(input, opts...)
	if err != nil {
		return err
	}

	fmt.Print(prompt)
	if config.Copy {
		if err := clipboard.WriteAll(prompt); err != nil {
			return fmt.Errorf("failed to copy prompt: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Prompt copied to clipboard")
	}
	return nil
}
