package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/entrhq/prompt-engine/pkg/engine"
	"github.com/entrhq/prompt-engine/pkg/session"
	"github.com/entrhq/prompt-engine/pkg/snapshot"
)

const helpText = `Commands:
  :reset           clear the dialog
  :undo            remove the last turn
  :drop-first      remove the oldest turn
  :dialog          show the full dialog
  :context         show the context the next prompt starts with
  :prompt <text>   show the prompt for <text> without sending it
  :stats           show token usage of the next prompt
  :copy            copy the last prompt sent to the clipboard
  :save [path]     save a snapshot (default: the -snapshot file)
  :help            show this help
  :quit            exit`

// repl reads user input line by line and sends it through a session.
// Lines starting with ':' are commands.
type repl struct {
	session      *session.Session
	in           *bufio.Scanner
	out          io.Writer
	render       *renderer
	snapshotPath string
	pending      string
	lastPrompt   string
	copy         func(string) error
}

func newREPL(s *session.Session, in io.Reader, out io.Writer, render *renderer) *repl {
	return &repl{
		session: s,
		in:      bufio.NewScanner(in),
		out:     out,
		render:  render,
	}
}

func (r *repl) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// run processes input until EOF, :quit or ctx is done.
func (r *repl) run(ctx context.Context) error {
	r.printf("%s\n\n", r.render.banner(r.session.Engine()))

	if r.pending != "" {
		r.send(ctx, r.pending)
		r.pending = ""
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		r.printf("> ")
		if !r.in.Scan() {
			r.printf("\n")
			return r.in.Err()
		}

		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if quit := r.command(line); quit {
				return nil
			}
			continue
		}
		r.send(ctx, line)
	}
}

func (r *repl) send(ctx context.Context, input string) {
	reply, err := r.session.Send(ctx, input)
	if err != nil {
		r.printError(err)
		return
	}
	r.lastPrompt = r.session.LastPrompt()
	r.printf("%s\n\n", r.render.reply(reply))
}

func (r *repl) printError(err error) {
	var overflow *engine.ContextOverflowError
	if errors.As(err, &overflow) {
		r.printf("%s\n", r.render.errorf("%v", err))
		r.printf("%s\n", r.render.info("Try :reset, shorten the input or raise -max-tokens."))
		return
	}
	r.printf("%s\n", r.render.errorf("%v", err))
}

// command runs a ':' command and reports whether the REPL should exit.
func (r *repl) command(line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	eng := r.session.Engine()

	switch name {
	case ":quit", ":q", ":exit":
		return true

	case ":help":
		r.printf("%s\n", r.render.info(helpText))

	case ":reset":
		if _, err := eng.ResetContext(); err != nil {
			r.printError(err)
			return false
		}
		r.printf("%s\n", r.render.info("Dialog cleared."))

	case ":undo":
		if removed, ok := eng.RemoveLastInteraction(); ok {
			r.printf("%s\n", r.render.info("Removed: "+removed.Input))
		} else {
			r.printf("%s\n", r.render.info("Dialog is empty."))
		}

	case ":drop-first":
		if removed, ok := eng.RemoveFirstInteraction(); ok {
			r.printf("%s\n", r.render.info("Removed: "+removed.Input))
		} else {
			r.printf("%s\n", r.render.info("Dialog is empty."))
		}

	case ":dialog":
		r.printf("%s\n", r.render.block("Dialog", eng.BuildDialog()))

	case ":context":
		built, err := eng.BuildContext("")
		if err != nil {
			r.printError(err)
			return false
		}
		r.printf("%s\n", r.render.block("Context", built))

	case ":prompt":
		prompt, err := r.session.Prompt(arg)
		if err != nil {
			r.printError(err)
			return false
		}
		r.printf("%s\n", r.render.block("Prompt", prompt))

	case ":stats":
		asm, err := eng.Assemble("")
		if err != nil {
			r.printError(err)
			return false
		}
		r.printf("%s\n", r.render.stats(asm, eng.Config().MaxTokens))
		if usage := r.session.LastUsage(); usage.TotalTokens > 0 {
			r.printf("%s\n", r.render.info(fmt.Sprintf("last reply: %d prompt + %d completion tokens reported by the model",
				usage.PromptTokens, usage.CompletionTokens)))
		}

	case ":copy":
		if r.lastPrompt == "" {
			r.printf("%s\n", r.render.info("Nothing sent yet."))
			return false
		}
		if r.copy == nil {
			r.printf("%s\n", r.render.errorf("clipboard is not available"))
			return false
		}
		if err := r.copy(r.lastPrompt); err != nil {
			r.printError(fmt.Errorf("failed to copy prompt: %w", err))
			return false
		}
		r.printf("%s\n", r.render.info("Last prompt copied to clipboard."))

	case ":save":
		path := arg
		if path == "" {
			path = r.snapshotPath
		}
		if path == "" {
			r.printf("%s\n", r.render.errorf("no snapshot path: use :save <path> or start with -snapshot"))
			return false
		}
		if err := snapshot.WriteFile(path, eng); err != nil {
			r.printError(err)
			return false
		}
		r.printf("%s\n", r.render.info("Saved "+path))

	default:
		r.printf("%s\n", r.render.errorf("unknown command %s (try :help)", name))
	}
	return false
}
