package genres

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
)

// blacklist holds non-genre noise terms filtered from sub-tags by
// case-insensitive substring match.
var blacklist = []string{
	"unknown",
	"soundtrack",
	"remix",
	"live",
	"dj",
	"various",
	"misc",
	"favorite",
	"compilation",
}

// yearPattern matches bare 4-digit years (1900-2099) that sources sometimes
// emit in place of a genre.
var yearPattern = regexp.MustCompile(`^(19|20)\d{2}$`)

// relaxStep is how far below the configured threshold the adaptive floor may
// drop on the single retry pass.
const relaxStep = 0.2

// Options configures aggregation and selection.
type Options struct {
	MaxTags       int     // Raw entries kept before cleaning (by descending confidence)
	MaxGenres     int     // Final selection cap
	Confidence    float64 // Selection threshold in [0,1]
	MinConfidence float64 // Lowest floor the adaptive relaxation may use
}

// DefaultOptions returns the selection defaults used when a field is unset.
func DefaultOptions() Options {
	return Options{
		MaxTags:       10,
		MaxGenres:     3,
		Confidence:    0.6,
		MinConfidence: 0.3,
	}
}

// Result is the aggregator's final output for one work item. Genres is
// ordered by descending confidence; an empty slice means no valid genres
// survived cleaning (an explicit outcome, not an error). FloorUsed reports
// the confidence threshold that actually selected the result, so callers can
// tell how much the configured threshold was relaxed.
type Result struct {
	Genres    []string
	FloorUsed float64
	Relaxed   bool
}

// Aggregator merges per-source genre signals. It is stateless apart from its
// options and safe for concurrent use.
type Aggregator struct {
	opts   Options
	logger *log.Logger
}

// NewAggregator creates an Aggregator, filling unset options from
// [DefaultOptions].
func NewAggregator(opts Options, logger *log.Logger) *Aggregator {
	def := DefaultOptions()
	if opts.MaxTags <= 0 {
		opts.MaxTags = def.MaxTags
	}
	if opts.MaxGenres <= 0 {
		opts.MaxGenres = def.MaxGenres
	}
	if opts.Confidence <= 0 {
		opts.Confidence = def.Confidence
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = def.MinConfidence
	}
	return &Aggregator{opts: opts, logger: logger}
}

// Options returns the effective options after defaulting.
func (a *Aggregator) Options() Options {
	return a.opts
}

// CleanAndSplit breaks a raw tag into cleaned sub-tags: split on ';', ',' and
// '/', trim whitespace, drop empties, drop blacklisted terms and bare years,
// and title-case the survivors. Idempotent on its own output.
func CleanAndSplit(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == ',' || r == '/'
	})

	var cleaned []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lower := strings.ToLower(part)
		if blacklisted(lower) {
			continue
		}
		if containsBareYear(part) {
			continue
		}
		cleaned = append(cleaned, titleCase(part))
	}
	return cleaned
}

func blacklisted(lower string) bool {
	for _, term := range blacklist {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// containsBareYear reports whether any whitespace-separated word of the tag
// is a bare 1900-2099 year ("Soundtrack 2020" carries one, "Rock" does not).
func containsBareYear(tag string) bool {
	for _, word := range strings.Fields(tag) {
		if yearPattern.MatchString(word) {
			return true
		}
	}
	return false
}

// titleCase uppercases the first letter of each whitespace-separated word and
// lowercases the rest ("pop music" → "Pop Music").
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// Aggregate merges raw tag→confidence entries into cleaned candidates. The
// raw entries are ranked by descending confidence and capped at MaxTags
// before cleaning; cleaned names are deduplicated case-insensitively, keeping
// the highest confidence seen for each unique name.
func (a *Aggregator) Aggregate(raw map[string]float64) map[string]float64 {
	type entry struct {
		tag  string
		conf float64
	}

	entries := make([]entry, 0, len(raw))
	for tag, conf := range raw {
		entries = append(entries, entry{tag, conf})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].conf != entries[j].conf {
			return entries[i].conf > entries[j].conf
		}
		return entries[i].tag < entries[j].tag
	})
	if len(entries) > a.opts.MaxTags {
		entries = entries[:a.opts.MaxTags]
	}

	candidates := make(map[string]float64)
	seen := make(map[string]string) // lowercase → canonical name
	for _, e := range entries {
		for _, name := range CleanAndSplit(e.tag) {
			lower := strings.ToLower(name)
			canonical, ok := seen[lower]
			if !ok {
				seen[lower] = name
				candidates[name] = e.conf
				continue
			}
			if e.conf > candidates[canonical] {
				candidates[canonical] = e.conf
			}
		}
	}
	return candidates
}

// Select picks the final genres from cleaned candidates: entries at or above
// the configured confidence, ordered by descending score, capped at
// MaxGenres, deduplicated case-insensitively against already-selected names.
//
// When nothing clears the threshold the floor is relaxed once to
// max(0, min(MinConfidence, Confidence-0.2)) and selection retried. If that
// still selects nothing but candidates exist, the single highest-confidence
// candidate is returned. An empty candidate set yields an empty Result.
func (a *Aggregator) Select(candidates map[string]float64) Result {
	return a.SelectWith(candidates, a.opts.Confidence, a.opts.MaxGenres)
}

// SelectWith is [Aggregator.Select] with an explicit threshold and cap.
func (a *Aggregator) SelectWith(candidates map[string]float64, confidence float64, maxGenres int) Result {
	if len(candidates) == 0 {
		return Result{FloorUsed: confidence}
	}

	ranked := rank(candidates)

	genres := pick(ranked, confidence, maxGenres)
	if len(genres) > 0 {
		return Result{Genres: genres, FloorUsed: confidence}
	}

	floor := confidence - relaxStep
	if a.opts.MinConfidence < floor {
		floor = a.opts.MinConfidence
	}
	if floor < 0 {
		floor = 0
	}

	genres = pick(ranked, floor, maxGenres)
	if len(genres) > 0 {
		if a.logger != nil {
			a.logger.Debugf("relaxed confidence floor %.2f → %.2f", confidence, floor)
		}
		return Result{Genres: genres, FloorUsed: floor, Relaxed: true}
	}

	// Nothing cleared even the relaxed floor; fall back to the single best
	// candidate so a weak signal still beats no signal.
	best := ranked[0]
	return Result{Genres: []string{best.name}, FloorUsed: best.conf, Relaxed: true}
}

// Reduce runs Aggregate then Select in one step.
func (a *Aggregator) Reduce(raw map[string]float64) Result {
	return a.Select(a.Aggregate(raw))
}

type scored struct {
	name string
	conf float64
}

func rank(candidates map[string]float64) []scored {
	ranked := make([]scored, 0, len(candidates))
	for name, conf := range candidates {
		ranked = append(ranked, scored{name, conf})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].conf != ranked[j].conf {
			return ranked[i].conf > ranked[j].conf
		}
		return ranked[i].name < ranked[j].name
	})
	return ranked
}

func pick(ranked []scored, floor float64, maxGenres int) []string {
	var genres []string
	seen := make(map[string]bool)
	for _, s := range ranked {
		if s.conf < floor {
			break
		}
		lower := strings.ToLower(s.name)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		genres = append(genres, s.name)
		if len(genres) >= maxGenres {
			break
		}
	}
	return genres
}
