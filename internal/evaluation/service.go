package evaluation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/cognify-backend/internal/convstate"
	"github.com/yungbote/cognify-backend/internal/platform/apperr"
	"github.com/yungbote/cognify-backend/internal/platform/ctxutil"
	"github.com/yungbote/cognify-backend/internal/platform/logger"
	"github.com/yungbote/cognify-backend/internal/platform/openai"
	"github.com/yungbote/cognify-backend/internal/prompts"
	"github.com/yungbote/cognify-backend/internal/realtime/bus"
	"github.com/yungbote/cognify-backend/internal/repos"
	"github.com/yungbote/cognify-backend/internal/types"
	"github.com/yungbote/cognify-backend/internal/usercontext"
)

// EvaluationPurposePrefix namespaces conversation states so evaluations of
// different challenges never share continuity.
const EvaluationPurposePrefix = "evaluation_"

type Options struct {
	// Model and Temperature override the client defaults per call.
	Model       string
	Temperature *float64

	FeedbackStyle string

	// Context window sizes; zero means the aggregator defaults.
	ChallengeLimit  int
	EvaluationLimit int
}

// Service orchestrates one evaluation round trip: context gathering, prompt
// construction, the AI call with conversation continuity, normalization, and
// best-effort persistence.
type Service interface {
	EvaluateResponse(ctx context.Context, challenge *types.Challenge, userResponse string, opts Options) (*types.Evaluation, error)

	// StreamEvaluation is EvaluateResponse with output deltas forwarded to
	// onDelta (and to the realtime bus when one is configured) as they
	// arrive.
	StreamEvaluation(ctx context.Context, challenge *types.Challenge, userResponse string, opts Options, onDelta func(delta string)) (*types.Evaluation, error)

	BuildPrompt(kind prompts.Kind, in prompts.Input) (prompts.Result, error)
	GatherUserContext(ctx context.Context, userID uuid.UUID, opts usercontext.Options) (*usercontext.UserContext, error)
}

type service struct {
	registry    *prompts.Registry
	contextSvc  usercontext.Service
	ai          openai.Client
	states      convstate.Store
	evaluations repos.EvaluationRepo
	bus         bus.EvalBus
	log         *logger.Logger
	tracer      trace.Tracer
}

type Deps struct {
	Registry    *prompts.Registry
	UserContext usercontext.Service
	AI          openai.Client
	States      convstate.Store
	// Evaluations is optional; when nil, produced entities are not persisted.
	Evaluations repos.EvaluationRepo
	// Bus is optional; when nil, realtime delivery is disabled.
	Bus bus.EvalBus
}

func NewService(d Deps, baseLog *logger.Logger) (Service, error) {
	if d.Registry == nil {
		return nil, apperr.New(apperr.KindValidation, "prompt registry required")
	}
	if d.UserContext == nil {
		return nil, apperr.New(apperr.KindValidation, "user context service required")
	}
	if d.AI == nil {
		return nil, apperr.New(apperr.KindValidation, "ai client required")
	}
	if d.States == nil {
		return nil, apperr.New(apperr.KindValidation, "conversation state store required")
	}
	return &service{
		registry:    d.Registry,
		contextSvc:  d.UserContext,
		ai:          d.AI,
		states:      d.States,
		evaluations: d.Evaluations,
		bus:         d.Bus,
		log:         baseLog.With("service", "EvaluationService"),
		tracer:      otel.Tracer("cognify/evaluation"),
	}, nil
}

func (s *service) EvaluateResponse(ctx context.Context, challenge *types.Challenge, userResponse string, opts Options) (*types.Evaluation, error) {
	return s.evaluate(ctx, challenge, userResponse, opts, nil)
}

func (s *service) StreamEvaluation(ctx context.Context, challenge *types.Challenge, userResponse string, opts Options, onDelta func(delta string)) (*types.Evaluation, error) {
	return s.evaluate(ctx, challenge, userResponse, opts, onDelta)
}

func (s *service) BuildPrompt(kind prompts.Kind, in prompts.Input) (prompts.Result, error) {
	return s.registry.Build(kind, in)
}

func (s *service) GatherUserContext(ctx context.Context, userID uuid.UUID, opts usercontext.Options) (*usercontext.UserContext, error) {
	return s.contextSvc.Gather(ctx, userID, opts)
}

// evaluate is the shared path; onDelta == nil selects the non-streaming call.
func (s *service) evaluate(ctx context.Context, challenge *types.Challenge, userResponse string, opts Options, onDelta func(delta string)) (*types.Evaluation, error) {
	if challenge == nil || challenge.ID == uuid.Nil {
		return nil, apperr.New(apperr.KindValidation, "challenge required")
	}
	if strings.TrimSpace(userResponse) == "" {
		return nil, apperr.New(apperr.KindValidation, "user response required").
			WithField("challenge_id", challenge.ID)
	}
	if challenge.UserID == uuid.Nil {
		return nil, apperr.New(apperr.KindValidation, "challenge owner required").
			WithField("challenge_id", challenge.ID)
	}
	userID := challenge.UserID

	ctx, span := s.tracer.Start(ctx, "evaluation.evaluate",
		trace.WithAttributes(
			attribute.String("challenge.id", challenge.ID.String()),
			attribute.String("challenge.type", challenge.ChallengeType),
		))
	defer span.End()

	requestID := uuid.NewString()
	ctx = ctxutil.WithTraceData(ctx, &ctxutil.TraceData{
		TraceID:   span.SpanContext().TraceID().String(),
		RequestID: requestID,
	})
	log := s.log.With("request_id", requestID, "challenge_id", challenge.ID.String(), "user_id", userID.String())

	uc, err := s.contextSvc.Gather(ctx, userID, usercontext.Options{
		ChallengeLimit:  opts.ChallengeLimit,
		EvaluationLimit: opts.EvaluationLimit,
	})
	if err != nil {
		return nil, err
	}
	history := uc.LearningJourney.EvaluationHistory

	in := prompts.Input{
		Challenge:         challenge,
		UserResponse:      userResponse,
		User:              uc.User,
		UserContext:       uc,
		EvaluationHistory: history,
		PreviousScores:    previousScores(history),
		Options: prompts.BuildOptions{
			FeedbackStyle: opts.FeedbackStyle,
		},
	}

	_, buildSpan := s.tracer.Start(ctx, "evaluation.build_prompt")
	result, err := s.registry.Build(prompts.KindEvaluation, in)
	buildSpan.End()
	if err != nil {
		return nil, err
	}

	// Continuity is best effort: a broken state store degrades the next
	// call's context, never this call's result.
	purpose := EvaluationPurposePrefix + challenge.ID.String()
	state, stateErr := s.states.FindOrCreate(ctx, userID, purpose, nil)
	if stateErr != nil {
		log.Warn("conversation state unavailable, continuing without continuity",
			"purpose", purpose, "error", stateErr)
	}
	previousResponseID := ""
	if state != nil {
		if id, err := s.states.GetLastResponseID(ctx, state.ID); err == nil {
			previousResponseID = id
		}
	}

	req := openai.StructuredRequest{
		System:             result.Instructions,
		User:               result.Input,
		SchemaName:         result.SchemaName,
		Schema:             result.Schema,
		Model:              opts.Model,
		Temperature:        opts.Temperature,
		PreviousResponseID: previousResponseID,
	}

	aiCtx, aiSpan := s.tracer.Start(ctx, "evaluation.generate")
	var resp openai.StructuredResponse
	if onDelta != nil || s.bus != nil {
		resp, err = s.ai.StreamJSON(aiCtx, req, func(delta string) {
			if onDelta != nil {
				onDelta(delta)
			}
			s.publish(aiCtx, bus.Event{
				Kind:        bus.EventEvaluationDelta,
				UserID:      userID,
				ChallengeID: challenge.ID,
				Delta:       delta,
			})
		})
	} else {
		resp, err = s.ai.GenerateJSON(aiCtx, req)
	}
	aiSpan.End()
	if err != nil {
		s.publish(ctx, bus.Event{
			Kind:        bus.EventEvaluationFailed,
			UserID:      userID,
			ChallengeID: challenge.ID,
			Payload:     map[string]any{"error": err.Error()},
		})
		if apperr.KindOf(err) != "" {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindGeneration, "ai evaluation request failed", err).
			WithField("challenge_id", challenge.ID).
			WithField("user_id", userID)
	}
	issuedAt := time.Now().UTC()

	_, normSpan := s.tracer.Start(ctx, "evaluation.normalize")
	eval, err := Normalize(resp.Data, history, types.ChallengeContext{
		ChallengeID:   challenge.ID,
		Title:         challenge.Title,
		ChallengeType: challenge.ChallengeType,
		FocusArea:     challenge.FocusArea,
	})
	normSpan.End()
	if err != nil {
		return nil, err
	}
	eval.UserID = userID
	eval.ResponseID = resp.ResponseID
	if state != nil {
		eval.ThreadID = state.ID.String()
	}

	if s.evaluations != nil {
		if err := s.evaluations.Create(ctx, nil, eval); err != nil {
			log.Warn("evaluation persist failed, returning unpersisted entity", "error", err)
		}
	}
	if state != nil {
		if err := s.states.UpdateLastResponseID(ctx, state.ID, resp.ResponseID, issuedAt); err != nil {
			log.Warn("conversation state advance failed",
				"state_id", state.ID.String(), "error", err)
		}
	}

	s.publish(ctx, bus.Event{
		Kind:        bus.EventEvaluationCompleted,
		UserID:      userID,
		ChallengeID: challenge.ID,
		Payload:     map[string]any{"evaluation_id": eval.ID.String(), "score": eval.Score},
	})

	return eval, nil
}

func (s *service) publish(ctx context.Context, ev bus.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.log.Warn("realtime publish failed", "kind", ev.Kind, "error", err)
	}
}

// previousScores snapshots the immediately preceding evaluation as the
// category map the evaluation prompt's growth section expects, with "overall"
// carrying the previous total.
func previousScores(history []types.Evaluation) map[string]float64 {
	if len(history) == 0 {
		return nil
	}
	prev := history[0]
	out := map[string]float64{"overall": float64(prev.Score)}
	for cat, score := range prev.CategoryScoreMap() {
		out[cat] = score
	}
	return out
}
