package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"prism/internal/gateway/app"
	"prism/internal/gateway/config"
	llmclient "prism/internal/llmClient"
	"prism/internal/perspective"
	"prism/internal/pipeline"
	"prism/internal/prompt"
	"prism/internal/strategy"
)

type askOptions struct {
	model string
	mode  string
	fake  bool
	plain bool
	state bool
}

func newAskCmd() *cobra.Command {
	var opts askOptions
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Run one question through the pipeline",
		Long: `Run a single question through every stage and stream the final answer.
The question is read from stdin when no argument is given.

Examples:
  prism ask "Is it ethical to eat meat?"
  prism ask --mode committee --model gemini-2.5-flash "Should we adopt a 4-day week?"
  echo "What is justice?" | prism ask --fake --plain`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := readQuestion(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return runAsk(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), loadConfig(), opts, question)
		},
	}
	cmd.Flags().StringVar(&opts.model, "model", "", "Model id (default $PRISM_DEFAULT_MODEL)")
	cmd.Flags().StringVar(&opts.mode, "mode", "worldview", "Perspective set: worldview or committee")
	cmd.Flags().BoolVar(&opts.fake, "fake", false, "Use the offline fake model")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Print progress as lines instead of the live view")
	cmd.Flags().BoolVar(&opts.state, "state", false, "Print the final pipeline state as JSON")
	return cmd
}

func readQuestion(in io.Reader, args []string) (string, error) {
	var q string
	if len(args) > 0 {
		q = args[0]
	} else {
		raw, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("read question: %w", err)
		}
		q = string(raw)
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return "", errors.New("a question is required")
	}
	return q, nil
}

func runAsk(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, opts askOptions, question string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	model := opts.model
	if opts.fake {
		cfg.EnableFakeModel = true
		if model == "" {
			model = "fake"
		}
	}
	if model == "" {
		model = cfg.DefaultModel
	}
	mode, err := perspective.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	catalog, err := app.NewCatalog(cfg)
	if err != nil {
		return err
	}
	defer catalog.Close()
	registry, err := app.NewRegistry(cfg)
	if err != nil {
		return err
	}

	// Request logs would tear the live view.
	logger := log.New(io.Discard, "", 0)
	if opts.plain {
		logger = log.New(stderr, "", log.LstdFlags)
	}
	orch := pipeline.New(catalog,
		pipeline.WithRegistry(registry),
		pipeline.WithSelector(strategy.Default().WithDelays(cfg.Pipeline.Delay, cfg.Pipeline.HeavyDelay)),
		pipeline.WithTemperature(cfg.Pipeline.Temperature),
		pipeline.WithMaxParallel(cfg.Pipeline.MaxParallel),
		pipeline.WithLogger(logger),
	)
	turn := pipeline.Turn{
		Model:    model,
		Mode:     mode,
		Messages: []llmclient.Message{{Role: llmclient.RoleUser, Content: question}},
	}

	var out pipeline.Outcome
	if opts.plain {
		out, err = orch.Run(ctx, turn, plainSink(stdout, stderr))
		fmt.Fprintln(stdout)
	} else {
		out, err = runLive(ctx, stderr, orch, turn, question)
		if err == nil {
			printAnswer(stdout, out.Text)
		}
	}
	if err != nil {
		return err
	}
	if opts.state {
		raw, err := out.State.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(raw))
	}
	return nil
}

// plainSink writes notes to stderr and the streamed answer to stdout.
func plainSink(stdout, stderr io.Writer) pipeline.Sink {
	return pipeline.SinkFunc(func(e pipeline.Event) {
		switch e.Kind {
		case pipeline.EventProgress:
			fmt.Fprintln(stderr, e.Note)
		case pipeline.EventToken:
			if e.Token != nil {
				fmt.Fprint(stdout, *e.Token)
			}
		case pipeline.EventError:
			fmt.Fprintf(stderr, "error: %v\n", e.Err)
		}
	})
}

func runLive(ctx context.Context, stderr io.Writer, orch *pipeline.Orchestrator, turn pipeline.Turn, question string) (pipeline.Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newAskModel(question, turn.Model)
	p := tea.NewProgram(m, tea.WithOutput(stderr), tea.WithInput(os.Stdin))
	go func() {
		out, err := orch.Run(ctx, turn, pipeline.SinkFunc(func(e pipeline.Event) {
			p.Send(eventMsg(e))
		}))
		p.Send(doneMsg{out: out, err: err})
	}()
	final, err := p.Run()
	if err != nil {
		return pipeline.Outcome{}, err
	}
	fm := final.(askModel)
	if !fm.done {
		return pipeline.Outcome{}, errors.New("interrupted")
	}
	return fm.outcome, fm.err
}

func printAnswer(w io.Writer, text string) {
	st := newAskStyles()
	answer, ok := prompt.ParseFinalAnswer(text)
	if !ok || !answer.Complete() {
		fmt.Fprintln(w, text)
		return
	}
	fmt.Fprintln(w, st.heading.Render(prompt.KeyAssumptionsHeading))
	fmt.Fprintln(w, answer.KeyAssumptions)
	fmt.Fprintln(w)
	fmt.Fprintln(w, st.heading.Render(prompt.ResponseHeading))
	fmt.Fprintln(w, answer.Response)
}
