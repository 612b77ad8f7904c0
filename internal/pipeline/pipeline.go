// Package pipeline wires relevance classification, context gathering and
// generation into the single per-question flow.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"market-mentor/internal/assembler"
	apperrors "market-mentor/internal/common/errors"
	"market-mentor/internal/common/logger"
	"market-mentor/internal/common/metrics"
	"market-mentor/internal/common/observability"
	"market-mentor/internal/generation"
	"market-mentor/internal/relevance/classifier"

	"github.com/google/uuid"
)

const (
	OutcomeAnswered = "answered"
	OutcomeRejected = "rejected"
	OutcomeFallback = "fallback"
	OutcomeFailed   = "failed"
)

type Classifier interface {
	Classify(ctx context.Context, question string) classifier.Verdict
}

type ContextGatherer interface {
	Gather(ctx context.Context, question string) (assembler.Context, error)
}

type Answerer interface {
	Generate(ctx context.Context, question, combined string) generation.Reply
}

type Rejecter interface {
	Generate(ctx context.Context, question string) generation.Reply
}

// Result is the terminal state of one question.
type Result struct {
	Text      string
	Outcome   string
	Verdict   classifier.Verdict
	RequestID string
}

type Pipeline struct {
	classifier Classifier
	gatherer   ContextGatherer
	answerer   Answerer
	rejecter   Rejecter
	obs        *observability.Observability
	logger     logger.Logger
}

func New(
	c Classifier,
	gatherer ContextGatherer,
	answerer Answerer,
	rejecter Rejecter,
	obs *observability.Observability,
	log logger.Logger,
) *Pipeline {
	return &Pipeline{
		classifier: c,
		gatherer:   gatherer,
		answerer:   answerer,
		rejecter:   rejecter,
		obs:        obs,
		logger:     log.With(map[string]interface{}{"component": "pipeline"}),
	}
}

// Process runs CLASSIFY then REJECT or GATHER and GENERATE. It always
// yields text; failures past classification become a formatted message.
func (p *Pipeline) Process(ctx context.Context, question string) Result {
	requestID := RequestIDFrom(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = WithRequestID(ctx, requestID)
	}
	log := p.logger.With(map[string]interface{}{"requestId": requestID})

	metrics.QuestionsActive.Inc()
	defer metrics.QuestionsActive.Dec()

	start := time.Now()
	log.Info("processing new question", map[string]interface{}{"question": question})

	verdict := p.classify(ctx, question)

	var result Result
	if !verdict.Relevant {
		log.Info("question is out of domain, generating rejection", map[string]interface{}{
			"stage": verdict.Stage,
		})
		result = p.reject(ctx, question)
	} else {
		result = p.answer(ctx, log, question)
	}

	result.Verdict = verdict
	result.RequestID = requestID

	metrics.QuestionsTotal.WithLabelValues(result.Outcome).Inc()
	p.obs.RecordQuestion(ctx, result.Outcome)
	log.Info("question processed", map[string]interface{}{
		"outcome":    result.Outcome,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return result
}

func (p *Pipeline) classify(ctx context.Context, question string) classifier.Verdict {
	ctx, span := p.obs.StartSpan(ctx, "classify")
	defer observability.EndSpan(span, nil)
	defer p.stageTimer(ctx, "classify")()

	return p.classifier.Classify(ctx, question)
}

func (p *Pipeline) reject(ctx context.Context, question string) Result {
	ctx, span := p.obs.StartSpan(ctx, "reject")
	defer p.stageTimer(ctx, "reject")()

	reply := p.rejecter.Generate(ctx, question)
	observability.EndSpan(span, reply.Err)
	return Result{Text: reply.Text, Outcome: OutcomeRejected}
}

// answer recovers panics from the gather and generate stages so one bad
// request cannot take down the caller.
func (p *Pipeline) answer(ctx context.Context, log logger.Logger, question string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			err := apperrors.NewPipelineFailedError("answer", fmt.Errorf("panic: %v", r))
			log.Error("error processing question", err.ToLogFields())
			result = Result{
				Text:    fmt.Sprintf("An error occurred while processing your question: %v", r),
				Outcome: OutcomeFailed,
			}
		}
	}()

	combined, err := p.gather(ctx, question)
	if err != nil {
		stdErr := apperrors.NewPipelineFailedError("gather", err)
		log.Error("error processing question", stdErr.ToLogFields())
		return Result{
			Text:    fmt.Sprintf("An error occurred while processing your question: %v", err),
			Outcome: OutcomeFailed,
		}
	}

	reply := p.generate(ctx, question, combined)
	if reply.Fallback {
		return Result{Text: reply.Text, Outcome: OutcomeFallback}
	}
	log.Info("final AI response generated successfully", nil)
	return Result{Text: reply.Text, Outcome: OutcomeAnswered}
}

// gather and generate end their span even when the stage panics.
func (p *Pipeline) gather(ctx context.Context, question string) (combined assembler.Context, err error) {
	ctx, span := p.obs.StartSpan(ctx, "gather")
	defer func() { observability.EndSpan(span, err) }()
	defer p.stageTimer(ctx, "gather")()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			panic(r)
		}
	}()
	return p.gatherer.Gather(ctx, question)
}

func (p *Pipeline) generate(ctx context.Context, question string, combined assembler.Context) (reply generation.Reply) {
	ctx, span := p.obs.StartSpan(ctx, "generate")
	var err error
	defer func() { observability.EndSpan(span, err) }()
	defer p.stageTimer(ctx, "generate")()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			panic(r)
		}
	}()
	reply = p.answerer.Generate(ctx, question, combined.String())
	err = reply.Err
	return reply
}

func (p *Pipeline) stageTimer(ctx context.Context, stage string) func() {
	start := time.Now()
	return func() {
		p.obs.RecordStageDuration(ctx, stage, time.Since(start))
	}
}
