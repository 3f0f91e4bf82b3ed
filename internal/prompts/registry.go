package prompts

import (
	"github.com/yungbote/cognify-backend/internal/platform/apperr"
	"github.com/yungbote/cognify-backend/internal/platform/logger"
)

// BuilderFunc builds a prompt from validated input. The return type is any
// because older builders returned strings or loosely-keyed maps; the registry
// canonicalizes every shape before it reaches a caller. New builders return
// Result directly.
type BuilderFunc func(Input) (any, error)

// Registry is the type-keyed dispatch table for prompt builders. Populate it
// at startup (RegisterDefaults); it is not safe for concurrent mutation
// afterwards, and nothing mutates it after startup.
type Registry struct {
	log      *logger.Logger
	builders map[Kind]BuilderFunc
}

func NewRegistry(baseLog *logger.Logger) *Registry {
	return &Registry{
		log:      baseLog.With("service", "PromptRegistry"),
		builders: map[Kind]BuilderFunc{},
	}
}

func (r *Registry) Register(kind Kind, fn BuilderFunc) error {
	k := normalizeKind(kind)
	if k == "" {
		return apperr.New(apperr.KindInvalidBuilder, "prompt kind required")
	}
	if fn == nil {
		return apperr.New(apperr.KindInvalidBuilder, "builder must be callable").
			WithField("kind", string(k))
	}
	r.builders[k] = fn
	return nil
}

// Build dispatches to the registered builder and canonicalizes its output.
// Validation failures from the builder propagate as-is; any other builder
// error is wrapped as a prompt_construction failure with the kind attached.
func (r *Registry) Build(kind Kind, in Input) (Result, error) {
	k := normalizeKind(kind)
	fn, ok := r.builders[k]
	if !ok {
		return Result{}, apperr.New(apperr.KindBuilderNotFound, "no builder registered for kind").
			WithField("kind", string(kind))
	}

	raw, err := fn(in)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			return Result{}, err
		}
		return Result{}, apperr.Wrap(apperr.KindPromptConstruction, "builder failed", err).
			WithField("kind", string(k))
	}
	return Canonicalize(k, raw)
}

func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.builders))
	for k := range r.builders {
		out = append(out, k)
	}
	return out
}
