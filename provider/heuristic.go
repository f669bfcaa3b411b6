package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/councilflow/councilflow/types"
)

// roleSignals maps a reviewer role to the proposal-text signals it
// reacts to. Hits on penalties pull the score down, hits on bonuses
// push it up.
type roleSignals struct {
	penalties []string
	bonuses   []string
	dimension string
}

var defaultSignals = map[string]roleSignals{
	"risk": {
		penalties: []string{"guarantee", "lawsuit", "controversial", "scandal", "unverified"},
		bonuses:   []string{"reviewed", "approved", "verified"},
		dimension: "risk",
	},
	"compliance": {
		penalties: []string{"free money", "medical claim", "cure", "giveaway", "insider"},
		bonuses:   []string{"disclaimer", "terms apply"},
		dimension: "compliance",
	},
	"brand": {
		penalties: []string{"slang", "clickbait", "all caps"},
		bonuses:   []string{"our mission", "values", "community"},
		dimension: "brand_fit",
	},
	"engagement": {
		penalties: []string{"boring", "press release"},
		bonuses:   []string{"question", "poll", "challenge", "!"},
		dimension: "engagement",
	},
	"trend": {
		penalties: []string{"outdated", "last year"},
		bonuses:   []string{"trending", "viral", "new"},
		dimension: "trend_fit",
	},
}

// HeuristicProvider forms opinions from keyword signals in the proposal
// text, biased by the reviewer's role. It is fully deterministic: the
// same proposal and history always produce the same opinion. In later
// rounds it drifts one ordinal step toward the room's plurality every
// other turn, which gives CLI debates a realistic convergence shape.
type HeuristicProvider struct {
	signals map[string]roleSignals
}

// NewHeuristicProvider creates a provider with the default role signals.
func NewHeuristicProvider() *HeuristicProvider {
	return &HeuristicProvider{signals: defaultSignals}
}

// Evaluate implements ReasoningProvider.
func (p *HeuristicProvider) Evaluate(ctx context.Context, req *Request) (*types.Opinion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sig, ok := p.signals[req.Reviewer.Role]
	if !ok {
		sig = roleSignals{dimension: "general"}
	}

	content := strings.ToLower(req.Proposal.Content)
	score := 70.0
	var concerns []string
	for _, w := range sig.penalties {
		if strings.Contains(content, w) {
			score -= 15
			concerns = append(concerns, fmt.Sprintf("flagged %q", w))
		}
	}
	for _, w := range sig.bonuses {
		if strings.Contains(content, w) {
			score += 8
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	vote := voteForScore(score)
	if req.Round >= 2 && req.Round%2 == 0 {
		vote = driftTowardPlurality(vote, req.VisibleHistory)
	}

	dims := map[string]float64{sig.dimension: 100 - score}

	return &types.Opinion{
		ReviewerID: req.Reviewer.ID,
		Round:      req.Round,
		Vote:       vote,
		Score:      types.Float64Ptr(score),
		Reasoning:  fmt.Sprintf("%s assessment: %.0f/100", req.Reviewer.Role, score),
		Concerns:   concerns,
		Dimensions: dims,
		Timestamp:  time.Now(),
	}, nil
}

func voteForScore(score float64) types.Vote {
	switch {
	case score >= 75:
		return types.VoteApprove
	case score >= 40:
		return types.VoteConditional
	default:
		return types.VoteReject
	}
}

// driftTowardPlurality moves the vote one ordinal step toward the most
// common latest vote in the visible history.
func driftTowardPlurality(vote types.Vote, history []types.Opinion) types.Vote {
	latest := make(map[string]types.Vote)
	for _, op := range history {
		if op.Vote.Countable() {
			latest[op.ReviewerID] = op.Vote
		}
	}
	counts := make(map[types.Vote]int)
	for _, v := range latest {
		counts[v]++
	}

	plurality, best := vote, -1
	for _, v := range []types.Vote{types.VoteReject, types.VoteConditional, types.VoteApprove} {
		if counts[v] > best {
			plurality, best = v, counts[v]
		}
	}

	switch {
	case plurality.Ordinal() > vote.Ordinal():
		return fromOrdinal(vote.Ordinal() + 1)
	case plurality.Ordinal() < vote.Ordinal():
		return fromOrdinal(vote.Ordinal() - 1)
	default:
		return vote
	}
}

func fromOrdinal(o int) types.Vote {
	switch o {
	case 0:
		return types.VoteReject
	case 2:
		return types.VoteApprove
	default:
		return types.VoteConditional
	}
}
