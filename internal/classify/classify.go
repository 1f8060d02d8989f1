// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify decides whether candidate passages are genuine
// positionality statements. With an AI backend configured the decision
// is delegated to a language model; without one, or whenever a backend
// call fails, the lexical cue match itself counts as the verdict. A
// backend failure therefore never suppresses a candidate — it widens
// the result set instead.
package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/equitylab/positionality-engine/pkg/types"
)

// ErrUnparsableVerdict reports a backend response with no yes/no verdict
// on its first line.
var ErrUnparsableVerdict = errors.New("response contains no yes/no verdict")

// Backend abstracts a chat completion API so tests can supply a fake.
type Backend interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// NewBackend builds the backend named by the configuration.
func NewBackend(cfg types.AIConfig) (Backend, error) {
	switch cfg.Provider {
	case types.ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case types.ProviderAnthropic:
		return NewAnthropic(cfg), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxPassage = 12000
)

// Classifier judges candidates, in AI mode when a backend is present and
// in lexical mode otherwise.
type Classifier struct {
	backend    Backend
	limiter    *rate.Limiter
	timeout    time.Duration
	maxPassage int
}

// New returns a classifier. A nil backend selects lexical mode, where
// every candidate is accepted on the strength of its cue match.
func New(cfg types.AIConfig, backend Backend) *Classifier {
	cl := &Classifier{
		backend:    backend,
		timeout:    cfg.Timeout,
		maxPassage: cfg.MaxPassageChars,
	}
	if cl.timeout <= 0 {
		cl.timeout = defaultTimeout
	}
	if cl.maxPassage <= 0 {
		cl.maxPassage = defaultMaxPassage
	}
	if backend != nil && cfg.RatePerSecond > 0 {
		cl.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return cl
}

// Classify returns a verdict for one candidate. Backend errors are
// absorbed: the candidate falls back to its lexical verdict and the
// failure is recorded on the classification. Each candidate gets exactly
// one backend call.
func (cl *Classifier) Classify(ctx context.Context, c types.Candidate) types.Classification {
	if cl.backend == nil {
		return lexicalVerdict("")
	}

	match, rationale, err := cl.judge(ctx, c)
	if err != nil {
		zap.L().Warn("AI classification failed, using lexical verdict",
			zap.String("backend", cl.backend.Name()),
			zap.String("trigger", c.Trigger),
			zap.Int("page", c.Page),
			zap.Error(err))
		return lexicalVerdict(err.Error())
	}
	return types.Classification{
		Match:     match,
		Source:    types.ClassifierAI,
		Rationale: rationale,
	}
}

func (cl *Classifier) judge(ctx context.Context, c types.Candidate) (bool, string, error) {
	if cl.limiter != nil {
		if err := cl.limiter.Wait(ctx); err != nil {
			return false, "", err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, cl.timeout)
	defer cancel()

	prompt, err := renderPrompt(truncatePassage(c.Paragraph, cl.maxPassage))
	if err != nil {
		return false, "", fmt.Errorf("rendering prompt: %w", err)
	}

	raw, err := cl.backend.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return false, "", err
	}
	return parseVerdict(raw)
}

// lexicalVerdict accepts the candidate on its cue match alone. Lexical
// verdicts carry no rationale; the trigger on the candidate says enough.
func lexicalVerdict(fallbackReason string) types.Classification {
	return types.Classification{
		Match:          true,
		Source:         types.ClassifierRegex,
		FallbackReason: fallbackReason,
	}
}

// parseVerdict reads the yes/no verdict from the first line of a backend
// response. The remaining lines are returned as the rationale; when the
// response is a single line, the whole response serves as the rationale.
func parseVerdict(raw string) (bool, string, error) {
	raw = strings.TrimSpace(raw)
	line, rest, _ := strings.Cut(raw, "\n")
	rationale := strings.TrimSpace(rest)
	if rationale == "" {
		rationale = raw
	}
	for _, tok := range strings.Fields(strings.ToLower(line)) {
		switch strings.Trim(tok, ".,:;!?\"'()*_") {
		case "yes":
			return true, rationale, nil
		case "no":
			return false, rationale, nil
		}
	}
	return false, "", ErrUnparsableVerdict
}

// truncatePassage caps a passage at max runes.
func truncatePassage(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
