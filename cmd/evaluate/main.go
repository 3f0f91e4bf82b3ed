package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/yungbote/cognify-backend/internal/app"
	"github.com/yungbote/cognify-backend/internal/evaluation"
)

func main() {
	var (
		challengeID = flag.String("challenge", "", "challenge id to evaluate against (required)")
		response    = flag.String("response", "", "user response text; reads stdin when empty")
		stream      = flag.Bool("stream", false, "stream output deltas to stderr while generating")
		model       = flag.String("model", "", "model override for this call")
		feedback    = flag.String("feedback-style", "", "feedback style override (encouraging|direct|detailed)")
	)
	flag.Parse()

	if strings.TrimSpace(*challengeID) == "" {
		fmt.Fprintln(os.Stderr, "usage: evaluate -challenge <uuid> [-response <text>] [-stream]")
		os.Exit(2)
	}
	chID, err := uuid.Parse(strings.TrimSpace(*challengeID))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad challenge id: %v\n", err)
		os.Exit(2)
	}

	text := strings.TrimSpace(*response)
	if text == "" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
			os.Exit(1)
		}
		text = strings.TrimSpace(string(raw))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	challenge, err := a.Repos.Challenges.GetByID(ctx, nil, chID)
	if err != nil {
		a.Log.Error("challenge fetch failed", "challenge_id", chID.String(), "error", err)
		os.Exit(1)
	}
	if challenge == nil {
		fmt.Fprintf(os.Stderr, "challenge %s not found\n", chID)
		os.Exit(1)
	}

	opts := evaluation.Options{
		Model:         strings.TrimSpace(*model),
		FeedbackStyle: strings.TrimSpace(*feedback),
	}

	var eval interface{}
	if *stream {
		eval, err = a.Evaluations.StreamEvaluation(ctx, challenge, text, opts, func(delta string) {
			fmt.Fprint(os.Stderr, delta)
		})
		fmt.Fprintln(os.Stderr)
	} else {
		eval, err = a.Evaluations.EvaluateResponse(ctx, challenge, text, opts)
	}
	if err != nil {
		a.Log.Error("evaluation failed", "challenge_id", chID.String(), "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(eval); err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		os.Exit(1)
	}
}
