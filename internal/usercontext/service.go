package usercontext

import (
	"context"
	"math"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/cognify-backend/internal/platform/apperr"
	"github.com/yungbote/cognify-backend/internal/platform/logger"
	"github.com/yungbote/cognify-backend/internal/repos"
	"github.com/yungbote/cognify-backend/internal/types"
)

const (
	DefaultChallengeLimit  = 10
	DefaultEvaluationLimit = 5

	strengthScoreMin   = 80
	growthScoreMax     = 60
	frequencyThreshold = 2
)

type Options struct {
	ChallengeLimit  int
	EvaluationLimit int
}

func (o Options) withDefaults() Options {
	if o.ChallengeLimit <= 0 {
		o.ChallengeLimit = DefaultChallengeLimit
	}
	if o.EvaluationLimit <= 0 {
		o.EvaluationLimit = DefaultEvaluationLimit
	}
	return o
}

type Service interface {
	Gather(ctx context.Context, userID uuid.UUID, opts Options) (*UserContext, error)
}

type service struct {
	users       repos.UserRepo
	challenges  repos.ChallengeRepo
	evaluations repos.EvaluationRepo
	log         *logger.Logger
}

func NewService(users repos.UserRepo, challenges repos.ChallengeRepo, evaluations repos.EvaluationRepo, baseLog *logger.Logger) Service {
	return &service{
		users:       users,
		challenges:  challenges,
		evaluations: evaluations,
		log:         baseLog.With("service", "UserContextService"),
	}
}

// Gather fans out the three sub-fetches concurrently. A sub-fetch failure is
// logged and degrades to an empty sub-object; it never cancels the siblings
// and never fails the aggregation.
func (s *service) Gather(ctx context.Context, userID uuid.UUID, opts Options) (*UserContext, error) {
	if userID == uuid.Nil {
		return nil, apperr.New(apperr.KindValidation, "user id required")
	}
	opts = opts.withDefaults()

	var (
		user        *types.User
		challenges  []types.Challenge
		evaluations []types.Evaluation
	)

	g := &errgroup.Group{}
	g.Go(func() error {
		u, err := s.users.GetByID(ctx, nil, userID)
		if err != nil {
			s.log.Warn("profile fetch failed, continuing without it", "user_id", userID.String(), "error", err)
			return nil
		}
		user = u
		return nil
	})
	g.Go(func() error {
		rows, err := s.challenges.GetRecentByUserID(ctx, nil, userID, opts.ChallengeLimit)
		if err != nil {
			s.log.Warn("challenge history fetch failed, continuing without it", "user_id", userID.String(), "error", err)
			return nil
		}
		challenges = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.evaluations.GetRecentByUserID(ctx, nil, userID, opts.EvaluationLimit)
		if err != nil {
			s.log.Warn("evaluation history fetch failed, continuing without it", "user_id", userID.String(), "error", err)
			return nil
		}
		evaluations = rows
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	uc := &UserContext{
		UserID: userID,
		User:   user,
		LearningJourney: LearningJourney{
			ChallengeHistory:    challenges,
			EvaluationHistory:   evaluations,
			CompletedChallenges: countCompleted(challenges),
			SkillLevels:         deriveSkillLevels(evaluations),
		},
		Strengths:      deriveByFrequency(evaluations, func(score float64) bool { return score >= strengthScoreMin }),
		AreasForGrowth: deriveByFrequency(evaluations, func(score float64) bool { return score <= growthScoreMax }),
	}
	if user != nil {
		uc.Profile = Profile{
			SkillLevel:    user.SkillLevel,
			FocusAreas:    user.FocusAreas,
			LearningGoals: user.LearningGoals,
		}
	}
	return uc, nil
}

func countCompleted(challenges []types.Challenge) int {
	n := 0
	for i := range challenges {
		if challenges[i].CompletedAt != nil || challenges[i].Status == "completed" {
			n++
		}
	}
	return n
}

// deriveByFrequency returns the categories whose score satisfies qualifies in
// at least frequencyThreshold evaluations of the window, sorted for stable
// output.
func deriveByFrequency(evaluations []types.Evaluation, qualifies func(float64) bool) []string {
	counts := map[string]int{}
	for i := range evaluations {
		for cat, score := range evaluations[i].CategoryScoreMap() {
			if qualifies(score) {
				counts[cat]++
			}
		}
	}
	out := make([]string, 0, len(counts))
	for cat, n := range counts {
		if n >= frequencyThreshold {
			out = append(out, cat)
		}
	}
	sort.Strings(out)
	return out
}

func deriveSkillLevels(evaluations []types.Evaluation) map[string]int {
	sums := map[string]float64{}
	counts := map[string]int{}
	for i := range evaluations {
		for cat, score := range evaluations[i].CategoryScoreMap() {
			sums[cat] += score
			counts[cat]++
		}
	}
	out := make(map[string]int, len(sums))
	for cat, sum := range sums {
		out[cat] = int(math.Round(sum / float64(counts[cat])))
	}
	return out
}
