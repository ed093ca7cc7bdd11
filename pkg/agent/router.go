package agent

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// PrefixAgent forces a profile: "/agent:it_expert why does this panic?".
const PrefixAgent = "/agent:"

// SwitchThreshold is the confidence above which the ask pipeline
// switches to the routed profile.
const SwitchThreshold = 0.75

type Route struct {
	Agent      string  `json:"agent"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

type Router struct {
	catalog *Catalog
}

func NewRouter(c *Catalog) *Router {
	return &Router{catalog: c}
}

// RouteQuestion picks the profile whose keywords best match text. Two
// keyword hits are needed to clear SwitchThreshold.
func (r *Router) RouteQuestion(ctx context.Context, text string, userId uuid.UUID) (*Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(strings.ToLower(trimmed), PrefixAgent) {
		id, _, _ := strings.Cut(trimmed[len(PrefixAgent):], " ")
		if _, ok := r.catalog.Get(id); !ok {
			return nil, fmt.Errorf("unknown agent profile %q", id)
		}
		return &Route{Agent: id, Confidence: 1, Reason: "explicit prefix"}, nil
	}

	normalized := " " + normalize(trimmed) + " "
	best := r.catalog.Default()
	bestHits := 0
	var matched []string

	for _, p := range r.catalog.List() {
		hits := 0
		var words []string
		for _, kw := range p.Keywords {
			if strings.Contains(normalized, " "+normalize(kw)+" ") {
				hits++
				words = append(words, kw)
			}
		}
		if hits > bestHits {
			best, bestHits, matched = p, hits, words
		}
	}

	if bestHits == 0 {
		return &Route{Agent: best.ID, Confidence: 0, Reason: "no keyword matched"}, nil
	}
	confidence := 0.5 + 0.15*float64(bestHits)
	if confidence > 0.95 {
		confidence = 0.95
	}
	return &Route{
		Agent:      best.ID,
		Confidence: confidence,
		Reason:     "matched " + strings.Join(matched, ", "),
	}, nil
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
