// Package classifier labels post text as SALES, BRAND or ENGAGEMENT by keyword scoring.
//
// Text is normalized (lowercase, diacritics stripped, punctuation other than
// % and currency symbols removed) before matching. Keywords of three
// characters or fewer must match a whole word; longer keywords match as
// substrings through an Aho-Corasick automaton, so a single pass over the
// text finds every long keyword.
//
// Decision order:
//
//	SALES       >=2 sales matches, or >=1 sales match and a % sign
//	BRAND       >=2 brand matches
//	SALES       exactly 1 sales match and no brand match
//	BRAND       exactly 1 brand match and no sales match
//	ENGAGEMENT  everything else, including empty text
package classifier

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ppehal/orchideo-sub001/internal/models"
)

const (
	// shortKeywordMaxLen is the longest keyword (in runes) that requires a whole-word match.
	shortKeywordMaxLen = 3
	// maxReportedKeywords caps each matched-keyword list in detailed results.
	maxReportedKeywords = 20
	// DefaultDebugSampleSize is how many posts of a batch get detailed results.
	DefaultDebugSampleSize = 20
)

// Result is a detailed classification: the label plus the evidence for it.
type Result struct {
	Label         models.ContentLabel
	SalesKeywords []string
	BrandKeywords []string
	Reasoning     string
}

// Classifier is safe for concurrent use once constructed.
type Classifier struct {
	sales           *keywordSet
	brand           *keywordSet
	debugSampleSize int
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithDebugSampleSize sets how many posts of a batch receive detailed results.
func WithDebugSampleSize(n int) Option {
	return func(c *Classifier) {
		if n >= 0 {
			c.debugSampleSize = n
		}
	}
}

// New builds a classifier from sales and brand keyword lists.
func New(salesKeywords, brandKeywords []string, opts ...Option) *Classifier {
	c := &Classifier{
		sales:           newKeywordSet(salesKeywords),
		brand:           newKeywordSet(brandKeywords),
		debugSampleSize: DefaultDebugSampleSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Default builds a classifier with the built-in keyword lists.
func Default(opts ...Option) *Classifier {
	return New(DefaultSalesKeywords, DefaultBrandKeywords, opts...)
}

// Classify returns the label for text. Empty text is ENGAGEMENT.
func (c *Classifier) Classify(text string) models.ContentLabel {
	normalized := NormalizeText(text)
	if normalized == "" {
		return models.LabelEngagement
	}
	tokens := tokenSet(normalized)
	sales := len(c.sales.match(normalized, tokens))
	brand := len(c.brand.match(normalized, tokens))
	label, _ := decide(sales, brand, strings.Contains(normalized, "%"))
	return label
}

// ClassifyMessage classifies an optional message; nil behaves like "".
func (c *Classifier) ClassifyMessage(msg *string) models.ContentLabel {
	if msg == nil {
		return c.Classify("")
	}
	return c.Classify(*msg)
}

// Explain classifies text and returns the matched keywords (at most 20 per
// list) with a one-line explanation.
func (c *Classifier) Explain(text string) Result {
	normalized := NormalizeText(text)
	if normalized == "" {
		return Result{Label: models.LabelEngagement, Reasoning: "no text"}
	}
	tokens := tokenSet(normalized)
	salesHits := c.sales.match(normalized, tokens)
	brandHits := c.brand.match(normalized, tokens)
	label, reasoning := decide(len(salesHits), len(brandHits), strings.Contains(normalized, "%"))
	return Result{
		Label:         label,
		SalesKeywords: capList(salesHits),
		BrandKeywords: capList(brandHits),
		Reasoning:     reasoning,
	}
}

// ClassifyPosts labels every post. Only the first debug-sample posts carry
// keyword lists and reasoning.
func (c *Classifier) ClassifyPosts(posts []models.NormalizedPost) []models.ContentClassification {
	out := make([]models.ContentClassification, len(posts))
	for i := range posts {
		out[i].PostID = posts[i].ID
		if i < c.debugSampleSize {
			r := c.Explain(posts[i].Text())
			out[i].Label = r.Label
			out[i].SalesKeywords = r.SalesKeywords
			out[i].BrandKeywords = r.BrandKeywords
			out[i].Reasoning = r.Reasoning
			continue
		}
		out[i].Label = c.ClassifyMessage(posts[i].Message)
	}
	return out
}

// Mix counts labels in a batch of classifications.
type Mix struct {
	Sales      int
	Brand      int
	Engagement int
}

// MixOf tallies classifications by label.
func MixOf(classifications []models.ContentClassification) Mix {
	var m Mix
	for _, cl := range classifications {
		switch cl.Label {
		case models.LabelSales:
			m.Sales++
		case models.LabelBrand:
			m.Brand++
		default:
			m.Engagement++
		}
	}
	return m
}

// Total returns the number of classified posts.
func (m Mix) Total() int { return m.Sales + m.Brand + m.Engagement }

// Share returns the fraction of posts with label, or 0 for an empty mix.
func (m Mix) Share(label models.ContentLabel) float64 {
	total := m.Total()
	if total == 0 {
		return 0
	}
	var n int
	switch label {
	case models.LabelSales:
		n = m.Sales
	case models.LabelBrand:
		n = m.Brand
	default:
		n = m.Engagement
	}
	return float64(n) / float64(total)
}

func decide(sales, brand int, hasPercent bool) (models.ContentLabel, string) {
	switch {
	case sales >= 2:
		return models.LabelSales, fmt.Sprintf("%d sales keywords", sales)
	case sales >= 1 && hasPercent:
		return models.LabelSales, "sales keyword with percent sign"
	case brand >= 2:
		return models.LabelBrand, fmt.Sprintf("%d brand keywords", brand)
	case sales == 1 && brand == 0:
		return models.LabelSales, "single sales keyword"
	case brand == 1 && sales == 0:
		return models.LabelBrand, "single brand keyword"
	case sales == 0 && brand == 0:
		return models.LabelEngagement, "no sales or brand keywords"
	default:
		return models.LabelEngagement, fmt.Sprintf("mixed signals (%d sales, %d brand)", sales, brand)
	}
}

func capList(in []string) []string {
	if len(in) > maxReportedKeywords {
		return in[:maxReportedKeywords]
	}
	return in
}

// NormalizeText lowercases text, strips diacritics and replaces every rune
// that is not a letter, digit, % or currency symbol with a space. Runs of
// spaces collapse to one.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, text); err == nil {
		text = folded
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '%' || unicode.Is(unicode.Sc, r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func tokenSet(normalized string) map[string]struct{} {
	fields := strings.Fields(normalized)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// keywordSet splits a keyword list into whole-word (short) and substring (long) keywords.
type keywordSet struct {
	ordered []string
	short   map[string]bool
	long    []string
	matcher *ahocorasick.Matcher
}

func newKeywordSet(keywords []string) *keywordSet {
	ks := &keywordSet{short: make(map[string]bool)}
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		n := NormalizeText(kw)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		ks.ordered = append(ks.ordered, n)
		if utf8.RuneCountInString(n) <= shortKeywordMaxLen {
			ks.short[n] = true
		} else {
			ks.long = append(ks.long, n)
		}
	}
	if len(ks.long) > 0 {
		ks.matcher = ahocorasick.NewStringMatcher(ks.long)
	}
	return ks
}

// match returns the distinct keywords found in normalized text, in list order.
func (ks *keywordSet) match(normalized string, tokens map[string]struct{}) []string {
	hit := make(map[string]bool)
	if ks.matcher != nil {
		for _, idx := range ks.matcher.MatchThreadSafe([]byte(normalized)) {
			if idx >= 0 && idx < len(ks.long) {
				hit[ks.long[idx]] = true
			}
		}
	}
	for kw := range ks.short {
		if _, ok := tokens[kw]; ok {
			hit[kw] = true
		}
	}
	if len(hit) == 0 {
		return nil
	}
	out := make([]string, 0, len(hit))
	for _, kw := range ks.ordered {
		if hit[kw] {
			out = append(out, kw)
		}
	}
	return out
}
