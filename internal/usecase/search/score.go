package search

import (
	"cmp"
	"regexp"
	"slices"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/panjf2000/ants/v2"

	"github.com/kailas-cloud/sitesearch/internal/domain/search/request"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/result"
)

// DefaultParallelThreshold is the row count from which scoring fans out to
// the worker pool.
const DefaultParallelThreshold = 512

// weightedField is a record field with its potency.
type weightedField struct {
	name   string
	weight int
}

// Scorer ranks fetched rows by weighted term match counts. It holds no
// per-call state; every Rank call starts from zero.
type Scorer struct {
	pool      *ants.Pool
	threshold int
}

// NewScorer creates a scorer. A nil pool scores sequentially.
func NewScorer(pool *ants.Pool, threshold int) *Scorer {
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}
	return &Scorer{pool: pool, threshold: threshold}
}

// Rank scores rows and returns them by descending score. Rows with equal
// scores keep their fetch order.
func (sc *Scorer) Rank(rows []result.Record, terms []string, fields []weightedField, style request.SearchStyle) []result.Scored {
	patterns := termPatterns(terms, style)
	scored := make([]result.Scored, len(rows))
	for i, r := range rows {
		scored[i].Record = r
	}

	if sc.pool != nil && len(rows) >= sc.threshold {
		sc.scoreParallel(scored, patterns, fields)
	} else {
		for i := range scored {
			scored[i].Score = scoreRecord(scored[i].Record, patterns, fields)
		}
	}

	slices.SortStableFunc(scored, func(a, b result.Scored) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return scored
}

// scoreParallel splits rows into chunks handled by the pool. Each task
// writes only its own slots. A rejected task runs on the caller.
func (sc *Scorer) scoreParallel(scored []result.Scored, patterns []termMatcher, fields []weightedField) {
	chunk := max(sc.threshold/4, 1)
	var wg sync.WaitGroup
	for lo := 0; lo < len(scored); lo += chunk {
		hi := min(lo+chunk, len(scored))
		part := scored[lo:hi]
		task := func() {
			defer wg.Done()
			for i := range part {
				part[i].Score = scoreRecord(part[i].Record, patterns, fields)
			}
		}
		wg.Add(1)
		if err := sc.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()
}

func scoreRecord(r result.Record, patterns []termMatcher, fields []weightedField) int {
	score := 0
	for _, f := range fields {
		v, ok := r.Text(f.name)
		if !ok || v == "" {
			continue
		}
		for _, m := range patterns {
			score += m.count(v) * f.weight
		}
	}
	return score
}

// termMatcher counts case-insensitive literal occurrences of one term.
// Exact matchers only count hits bounded by non-word runes on both sides.
type termMatcher struct {
	re    *regexp.Regexp
	exact bool
}

func (m termMatcher) count(s string) int {
	hits := m.re.FindAllStringIndex(s, -1)
	if !m.exact {
		return len(hits)
	}
	n := 0
	for _, h := range hits {
		if wordBoundary(s, h[0], h[1]) {
			n++
		}
	}
	return n
}

// wordBoundary reports whether s[start:end] is not glued to a letter,
// digit or underscore. RE2's \b only knows ASCII word characters.
func wordBoundary(s string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func termPatterns(terms []string, style request.SearchStyle) []termMatcher {
	out := make([]termMatcher, 0, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		out = append(out, termMatcher{
			re:    regexp.MustCompile(`(?i)` + regexp.QuoteMeta(t)),
			exact: style == request.Exact,
		})
	}
	return out
}

// potencyFields builds the scored field set: search fields, attribute
// outputs and external fields, deduplicated in that order. A weight named
// after an included attribute also applies to its prefixed output.
func potencyFields(opts request.Options, js joinSet) []weightedField {
	weights := make(map[string]int, len(opts.FieldPotency))
	for k, v := range opts.FieldPotency {
		weights[k] = v
	}
	if opts.TVPrefix != "" {
		for _, name := range opts.IncludeTVList {
			if w, ok := opts.FieldPotency[name]; ok {
				if _, explicit := opts.FieldPotency[opts.TVPrefix+name]; !explicit {
					weights[opts.TVPrefix+name] = w
				}
			}
		}
	}

	var names []string
	for _, f := range docFieldRefs(opts.DocFields, nopLogger) {
		names = append(names, f.Column())
	}
	names = append(names, js.outputs...)

	seen := make(map[string]struct{}, len(names))
	out := make([]weightedField, 0, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		w, ok := weights[n]
		if !ok {
			w = 1
		}
		out = append(out, weightedField{name: n, weight: w})
	}
	return out
}
