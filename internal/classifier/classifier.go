// Package classifier maps memory text to a primary cognitive sector plus
// additional sectors, with a confidence score. The default path is a
// regex/keyword-weighted scorer in the style of the reference corpus's
// keyword-heuristic memory-type classifiers; an optional learned override
// can take over for low-confidence semantic calls.
package classifier

import (
	"regexp"
	"strings"

	"github.com/openmemory/openmemory/internal/model"
)

// Rule is a single weighted regular expression contributing to a sector's
// score.
type Rule struct {
	Pattern *regexp.Regexp
	Weight  float64
}

// Result is the classifier's output for one piece of text.
type Result struct {
	Primary    model.Sector
	Additional []model.Sector
	Confidence float64
}

// LearnedModel is the optional per-tenant override hook described in the
// specification: given a precomputed mean vector, it returns a label and a
// confidence in [0,1].
type LearnedModel interface {
	Classify(meanVec []float32) (model.Sector, float64)
}

// Classifier scores text against an ordered, per-sector rule set.
type Classifier struct {
	rules   map[model.Sector][]Rule
	order   []model.Sector
	learned LearnedModel
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLearnedModel installs an optional learned override.
func WithLearnedModel(m LearnedModel) Option {
	return func(c *Classifier) { c.learned = m }
}

// New builds a Classifier with the default rule set, in declaration order
// {episodic, semantic, procedural, emotional, reflective}.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		rules: defaultRules(),
		order: append([]model.Sector(nil), model.Sectors...),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func mustRules(weight float64, patterns ...string) []Rule {
	rules := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, Rule{Pattern: regexp.MustCompile(`(?i)` + p), Weight: weight})
	}
	return rules
}

func defaultRules() map[model.Sector][]Rule {
	return map[model.Sector][]Rule{
		model.SectorEpisodic: mustRules(1.3,
			`\byesterday\b`, `\blast (week|month|year|summer|winter|night)\b`,
			`\bi (went|visited|saw|met|attended)\b`, `\bwe (went|visited|met)\b`,
			`\bon (monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`,
			`\b(today|this morning|this afternoon)\b`,
		),
		model.SectorSemantic: mustRules(1.0,
			`\bis a\b`, `\bmeans\b`, `\bdefined as\b`, `\bconsists of\b`,
			`\bwe (chose|selected|decided on|use[sd]?)\b`, `\bfact(s)?\b`,
			`\baccording to\b`,
		),
		model.SectorProcedural: mustRules(1.2,
			`\bhow to\b`, `\bsteps?\b`, `\bprocedure\b`, `\bworkflow\b`,
			`\bstrategy\b`, `\balgorithm\b`, `\bmethod\b`, `\bapproach\b`,
			`\btechnique\b`, `\bprocess\b`, `\bdo this\b`, `\bfirst,? .* then\b`,
		),
		model.SectorEmotional: mustRules(1.4,
			`\bfelt\b`, `\bfeel(s|ing)?\b`, `\bhappy\b`, `\bsad\b`, `\bangry\b`,
			`\bexcited\b`, `\bworried\b`, `\bafraid\b`, `\blove[sd]?\b`, `\bhate[sd]?\b`,
			`\bfrustrat(ed|ing)\b`, `\bproud\b`,
		),
		model.SectorReflective: mustRules(0.9,
			`\bi (think|believe|realize[d]?|wonder)\b`, `\bin retrospect\b`,
			`\blooking back\b`, `\bnext time\b`, `\blesson learned\b`,
			`\bi should (have)?\b`, `\bwhat went (well|wrong)\b`,
		),
	}
}

// sectorWeights are applied to the synthetic embedder and to resonance
// scaling; exposed here since they share the classifier's sector ordering.
var sectorWeights = map[model.Sector]float64{
	model.SectorEpisodic:   1.3,
	model.SectorSemantic:   1.0,
	model.SectorProcedural: 1.2,
	model.SectorEmotional:  1.4,
	model.SectorReflective: 0.9,
}

// SectorWeight returns the configured synthetic/resonance weight for a
// sector, defaulting to 1.0 for an unknown sector.
func SectorWeight(s model.Sector) float64 {
	if w, ok := sectorWeights[s]; ok {
		return w
	}
	return 1.0
}

// Classify scores text against every sector's rule set and returns the
// primary sector, additional sectors, and a confidence. meanVec, when
// non-nil, is offered to an optional learned override.
func (c *Classifier) Classify(text string, explicitSector model.Sector, meanVec []float32) Result {
	if explicitSector != "" {
		return Result{Primary: explicitSector, Confidence: 1.0}
	}

	scores := make(map[model.Sector]float64, len(c.order))
	for _, sector := range c.order {
		var score float64
		for _, r := range c.rules[sector] {
			n := len(r.Pattern.FindAllStringIndex(text, -1))
			score += float64(n) * r.Weight
		}
		scores[sector] = score
	}

	primary, primaryScore, secondScore := topTwo(c.order, scores)

	if primaryScore == 0 {
		return Result{Primary: model.SectorSemantic, Confidence: 0.2}
	}

	threshold := primaryScore * 0.3
	if threshold < 1 {
		threshold = 1
	}
	var additional []model.Sector
	for _, sector := range c.order {
		if sector == primary {
			continue
		}
		if scores[sector] >= threshold {
			additional = append(additional, sector)
		}
	}

	confidence := primaryScore / (primaryScore + secondScore + 1)
	if confidence > 1 {
		confidence = 1
	}

	result := Result{Primary: primary, Additional: additional, Confidence: confidence}

	if c.learned != nil && result.Primary == model.SectorSemantic && confidence <= 0.6 {
		if label, lc := c.learned.Classify(meanVec); lc > 0.6 {
			result.Primary = label
			result.Confidence = lc
		}
	}

	return result
}

func topTwo(order []model.Sector, scores map[model.Sector]float64) (best model.Sector, bestScore, secondScore float64) {
	best = order[0]
	for _, sector := range order {
		s := scores[sector]
		if s > bestScore {
			secondScore = bestScore
			bestScore = s
			best = sector
		} else if s > secondScore {
			secondScore = s
		}
	}
	return best, bestScore, secondScore
}

// ContainsAnyToken reports whether text contains any of the needles,
// case-insensitively. Kept as a small helper for keyword-boost scoring
// elsewhere in the retrieval pipeline.
func ContainsAnyToken(text string, needles []string) bool {
	lower := strings.ToLower(text)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
