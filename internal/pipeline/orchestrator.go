// Package pipeline runs the multi-perspective stages for one user turn and
// reports progress to a Sink as it goes.
package pipeline

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"prism/internal/gateway/entity"
	"prism/internal/llm"
	llmclient "prism/internal/llmClient"
	"prism/internal/perspective"
	"prism/internal/prompt"
	"prism/internal/strategy"
)

var ErrNoUserMessage = errors.New("conversation has no user message")

// DefaultTemperature is sent with every call unless the model rejects it.
const DefaultTemperature float32 = 0.2

// Resolver maps a backend model id to a client. Unknown ids must fail with an
// error before any call is made.
type Resolver interface {
	Resolve(ctx context.Context, model string) (llmclient.LLMClient, error)
}

// MessageSaver persists the user and assistant messages of a finished turn
// in a single transaction.
type MessageSaver interface {
	SaveMessages(ctx context.Context, msgs []entity.Message) error
}

// Turn is the input of one run. Messages is the full conversation ending
// with the new user message.
type Turn struct {
	ChatID   string
	UserID   entity.UserID
	Model    string
	Mode     perspective.Mode
	Messages []llmclient.Message
}

// Outcome describes a completed run.
type Outcome struct {
	RunID     string
	MessageID string
	Text      string
	State     State
	Persisted bool
}

type Orchestrator struct {
	resolver    Resolver
	registry    *perspective.Registry
	selector    *strategy.Selector
	saver       MessageSaver
	traces      TraceStore
	logger      *log.Logger
	temperature float32
	maxParallel int
	newID       func() string
	now         func() time.Time
	sleep       func(context.Context, time.Duration) error
}

type Option func(*Orchestrator)

func WithRegistry(r *perspective.Registry) Option {
	return func(o *Orchestrator) { o.registry = r }
}

func WithSelector(s *strategy.Selector) Option {
	return func(o *Orchestrator) { o.selector = s }
}

func WithMessageSaver(s MessageSaver) Option {
	return func(o *Orchestrator) { o.saver = s }
}

func WithTraceStore(s TraceStore) Option {
	return func(o *Orchestrator) { o.traces = s }
}

func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithTemperature(t float32) Option {
	return func(o *Orchestrator) { o.temperature = t }
}

// WithMaxParallel caps concurrent calls within a parallel stage. 0 means no cap.
func WithMaxParallel(n int) Option {
	return func(o *Orchestrator) { o.maxParallel = n }
}

func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) { o.newID = fn }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithSleep replaces the delay function used by sequential strategies.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(o *Orchestrator) { o.sleep = fn }
}

func New(resolver Resolver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver:    resolver,
		registry:    perspective.Default(),
		selector:    strategy.Default(),
		logger:      log.Default(),
		temperature: DefaultTemperature,
		newID:       uuid.NewString,
		now:         time.Now,
		sleep:       strategy.Sleep,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run holds the state of a single invocation. It is owned by the goroutine
// that called Run; fan-out workers only hand results back over a channel.
type run struct {
	o        *Orchestrator
	id       string
	turn     Turn
	sink     Sink
	set      *perspective.Set
	client   llmclient.LLMClient
	strat    strategy.Strategy
	state    *State
	phase    Phase
	hook     *traceHook
	userText string
	started  time.Time
}

// Run executes every stage for turn, writing events to sink. On failure the
// last event written is an EventError and the returned error is the cause.
func (o *Orchestrator) Run(ctx context.Context, turn Turn, sink Sink) (Outcome, error) {
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}
	r := &run{o: o, id: o.newID(), turn: turn, sink: sink, started: o.now()}
	out, err := r.execute(ctx)
	if err != nil {
		o.logger.Printf("prism: run %s failed during %s: %v", r.id, r.phase, err)
		r.enter(PhaseFailed)
	}
	r.archiveTrace(context.WithoutCancel(ctx), err)
	if err != nil {
		sink.WriteEvent(Event{Kind: EventError, Err: err})
		return Outcome{RunID: r.id}, err
	}
	return out, nil
}

func (r *run) execute(ctx context.Context) (Outcome, error) {
	mode := r.turn.Mode
	if mode == "" {
		mode = perspective.ModeWorldview
	}
	set, err := r.o.registry.Set(mode)
	if err != nil {
		return Outcome{}, err
	}
	r.set = set
	r.userText = llmclient.LastUserText(r.turn.Messages)
	if strings.TrimSpace(r.userText) == "" {
		return Outcome{}, ErrNoUserMessage
	}
	client, err := r.o.resolver.Resolve(ctx, r.turn.Model)
	if err != nil {
		return Outcome{}, err
	}
	r.client = llm.Wrap(client, llm.WithHooks())
	r.strat = r.o.selector.For(r.turn.Model)
	if r.o.traces != nil {
		r.hook = &traceHook{now: r.o.now}
		ctx = llm.WithHook(ctx, r.hook)
	}
	r.state = newState(set.Mode())
	r.o.logger.Printf("prism: run %s chat=%s model=%s mode=%s strategy=%s", r.id, r.turn.ChatID, r.turn.Model, mode, r.strat)

	if err := r.perspectives(ctx); err != nil {
		return Outcome{}, err
	}
	if err := r.baselineAndSynthesis(ctx); err != nil {
		return Outcome{}, err
	}
	if err := r.evaluations(ctx); err != nil {
		return Outcome{}, err
	}
	if err := r.mediation(ctx); err != nil {
		return Outcome{}, err
	}
	comp, err := r.finalSynthesis(ctx)
	if err != nil {
		return Outcome{}, err
	}
	r.enter(PhaseDone)

	messageID := comp.MessageID
	if messageID == "" {
		messageID = r.o.newID()
	}
	persisted := r.persist(ctx, messageID, comp.Text)
	r.sink.WriteEvent(Event{Kind: EventFinish, MessageID: messageID})
	return Outcome{
		RunID:     r.id,
		MessageID: messageID,
		Text:      comp.Text,
		State:     r.state.Snapshot(),
		Persisted: persisted,
	}, nil
}

func (r *run) note(text string) {
	r.sink.WriteEvent(Event{Kind: EventProgress, Note: text})
}

func (r *run) snapshot() {
	s := r.state.Snapshot()
	r.sink.WriteEvent(Event{Kind: EventState, State: &s})
}

func (r *run) request(system string) llmclient.Request {
	temp := r.o.temperature
	return llmclient.Request{
		Model:       r.turn.Model,
		System:      system,
		Messages:    r.turn.Messages,
		Temperature: &temp,
	}
}

func callContext(ctx context.Context, stage string, unit int) context.Context {
	ctx = llm.WithPhase(ctx, stage)
	if unit >= 0 {
		ctx = llm.WithUnit(ctx, unit)
	}
	return ctx
}

// generate issues one blocking call. An empty reply counts as a failure so
// that state fields never hold a placeholder.
func (r *run) generate(ctx context.Context, stage string, unit int, system string) (string, error) {
	text, err := r.client.GenerateText(callContext(ctx, stage, unit), r.request(system))
	if err == nil && strings.TrimSpace(text) == "" {
		err = llmclient.ErrEmptyResponse
	}
	if err != nil {
		return "", &UpstreamError{Stage: stage, Index: unit, Err: err}
	}
	return text, nil
}

type unitResult struct {
	def  perspective.Definition
	text string
}

// fanOut runs one call per perspective. Under the sequential strategy calls go
// in registry order with the strategy delay between them. Otherwise they run
// concurrently and add is called here, on the run goroutine, in completion
// order. The first failure cancels the remaining calls and later results are
// dropped.
func (r *run) fanOut(ctx context.Context, stage string, build func(perspective.Definition) string, add func(perspective.Definition, string)) error {
	defs := r.set.All()
	if r.strat.Sequential() {
		for i, def := range defs {
			if i > 0 {
				if err := r.o.sleep(ctx, r.strat.Delay); err != nil {
					return err
				}
			}
			text, err := r.generate(ctx, stage, def.Index, build(def))
			if err != nil {
				return err
			}
			add(def, text)
		}
		return nil
	}

	results := make(chan unitResult, len(defs))
	waitErr := make(chan error, 1)
	var failed atomic.Bool
	g, gctx := errgroup.WithContext(ctx)
	if r.o.maxParallel > 0 {
		g.SetLimit(r.o.maxParallel)
	}
	go func() {
		for _, def := range defs {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				text, err := r.generate(gctx, stage, def.Index, build(def))
				if err != nil {
					failed.Store(true)
					return err
				}
				results <- unitResult{def: def, text: text}
				return nil
			})
		}
		waitErr <- g.Wait()
		close(results)
	}()
	for res := range results {
		if failed.Load() {
			continue
		}
		add(res.def, res.text)
	}
	return <-waitErr
}

func (r *run) perspectives(ctx context.Context) error {
	r.enter(PhasePerspectives)
	r.note(NotePerspectives)
	r.snapshot()
	return r.fanOut(ctx, StagePerspective, prompt.Perspective, func(def perspective.Definition, text string) {
		r.state.Perspectives = append(r.state.Perspectives, Result{
			ID:          r.o.newID(),
			Perspective: def.Description,
			Response:    text,
			Index:       def.Index,
		})
		r.snapshot()
	})
}

func (r *run) baselineAndSynthesis(ctx context.Context) error {
	r.enter(PhaseBaselineAndFirstSynthesis)
	synthesis := prompt.Synthesis(r.userText, byIndex(r.state.Perspectives, r.set.Count()))

	var baselineText, synthText string
	if r.strat.Sequential() {
		var err error
		if baselineText, err = r.generate(ctx, StageBaseline, -1, ""); err != nil {
			return err
		}
		if err := r.o.sleep(ctx, r.strat.Delay); err != nil {
			return err
		}
		r.note(NoteSynthesis)
		if synthText, err = r.generate(ctx, StageSynthesis, -1, synthesis); err != nil {
			return err
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			baselineText, err = r.generate(gctx, StageBaseline, -1, "")
			return err
		})
		r.note(NoteSynthesis)
		g.Go(func() error {
			var err error
			synthText, err = r.generate(gctx, StageSynthesis, -1, synthesis)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}
	}
	r.state.BaselineResponse = baselineText
	r.state.FirstPassSynthesis = synthText
	r.snapshot()
	return nil
}

func (r *run) evaluations(ctx context.Context) error {
	r.enter(PhaseEvaluation)
	r.note(NoteEvaluation)
	firstPass := r.state.FirstPassSynthesis
	build := func(def perspective.Definition) string { return prompt.Evaluation(def, firstPass) }
	return r.fanOut(ctx, StageEvaluation, build, func(def perspective.Definition, text string) {
		r.state.Evaluations = append(r.state.Evaluations, Result{
			ID:          r.o.newID(),
			Perspective: def.Description,
			Response:    text,
			Index:       def.Index,
			Impact:      prompt.ParseImpact(text),
		})
		r.snapshot()
	})
}

// mediation always runs, whatever the evaluations reported.
func (r *run) mediation(ctx context.Context) error {
	r.enter(PhaseMediation)
	r.note(NoteMediation)
	if r.strat.Sequential() {
		if err := r.o.sleep(ctx, r.strat.HeavyDelay); err != nil {
			return err
		}
	}
	system := prompt.Mediation(
		r.userText,
		r.set.Descriptions(),
		r.state.FirstPassSynthesis,
		byIndex(r.state.Evaluations, r.set.Count()),
	)
	text, err := r.generate(ctx, StageMediation, -1, system)
	if err != nil {
		return err
	}
	r.state.Mediation = text
	r.snapshot()
	return nil
}

// finalSynthesis streams the answer. Tokens are forwarded as they arrive and
// are not retracted if the stream later fails.
func (r *run) finalSynthesis(ctx context.Context) (llmclient.Completion, error) {
	r.enter(PhaseFinalSynthesis)
	r.note(NoteFinalSynthesis)
	if r.strat.Sequential() {
		if err := r.o.sleep(ctx, r.strat.HeavyDelay); err != nil {
			return llmclient.Completion{}, err
		}
	}
	system := prompt.FinalSynthesis(r.userText, r.set.Labels(), r.state.FirstPassSynthesis, r.state.Mediation)
	comp, err := r.client.StreamText(callContext(ctx, StageFinal, -1), r.request(system), func(delta string) {
		if delta == "" {
			r.sink.WriteEvent(Event{Kind: EventToken})
			return
		}
		tok := delta
		r.sink.WriteEvent(Event{Kind: EventToken, Token: &tok})
	})
	if err == nil && comp.Text == "" {
		err = llmclient.ErrEmptyResponse
	}
	if err != nil {
		return llmclient.Completion{}, &UpstreamError{Stage: StageFinal, Index: -1, Err: err}
	}
	return comp, nil
}

// persist writes the turn. Failures are logged and otherwise ignored; the
// stream has already been delivered. Anonymous turns are not stored.
func (r *run) persist(ctx context.Context, messageID, text string) bool {
	if r.o.saver == nil || r.turn.UserID.IsZero() {
		return false
	}
	raw, err := r.state.Snapshot().JSON()
	if err != nil {
		r.o.logger.Printf("prism: encode state for chat %s: %v", r.turn.ChatID, err)
		return false
	}
	now := r.o.now()
	msgs := []entity.Message{
		{
			ID:        r.o.newID(),
			ChatID:    r.turn.ChatID,
			Role:      entity.RoleUser,
			Content:   r.userText,
			CreatedAt: now,
		},
		{
			ID:        messageID,
			ChatID:    r.turn.ChatID,
			Role:      entity.RoleAssistant,
			Content:   text,
			CreatedAt: now,
			State:     raw,
		},
	}
	if err := r.o.saver.SaveMessages(context.WithoutCancel(ctx), msgs); err != nil {
		r.o.logger.Printf("prism: save messages chat=%s message=%s: %v", r.turn.ChatID, messageID, err)
		return false
	}
	return true
}
