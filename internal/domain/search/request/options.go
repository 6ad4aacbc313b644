package request

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/sitesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/sitesearch/internal/domain/source"
)

// Recognized option keys.
const (
	KeyIDs             = "ids"
	KeyExclude         = "exclude"
	KeyIDType          = "idType"
	KeyDepth           = "depth"
	KeyUseAllWords     = "useAllWords"
	KeySearchStyle     = "searchStyle"
	KeyHideMenu        = "hideMenu"
	KeyMaxWords        = "maxWords"
	KeyAndTerms        = "andTerms"
	KeyTermCombinator  = "termCombinator"
	KeyMatchWildcard   = "matchWildcard"
	KeyDocFields       = "docFields"
	KeyIncludeTVs      = "includeTVs"
	KeyIncludeTVList   = "includeTVList"
	KeyProcessTVs      = "processTVs"
	KeyTVPrefix        = "tvPrefix"
	KeyCustomPackages  = "customPackages"
	KeyWhere           = "where"
	KeySortBy          = "sortBy"
	KeySortDir         = "sortDir"
	KeyMaxCountPhpSort = "maxCountPhpSort"
	KeyFallbackSortBy  = "fallbackSortBy"
	KeyPerPage         = "perPage"
	KeyStart           = "start"
	KeyOffsetIndex     = "offsetIndex"
	KeyFieldPotency    = "fieldPotency"
	KeyDebug           = "debug"
	KeyContexts        = "contexts"
)

// Option defaults.
const (
	DefaultIDType         = Parents
	DefaultDepth          = 10
	DefaultSearchStyle    = Partial
	DefaultHideMenu       = HideMenuIgnore
	DefaultMaxWords       = 7
	DefaultFallbackSortBy = "id"
	DefaultSortDir        = "DESC"
	DefaultPerPage        = 10
	DefaultOffsetIndex    = "search_offset"
)

// DefaultDocFields are the base columns searched when docFields is not set.
var DefaultDocFields = []string{"pagetitle", "longtitle", "alias", "description", "introtext", "content"}

// IDType selects how the ids option is expanded.
type IDType string

// Scope expansion modes.
const (
	// Parents adds descendants of each id.
	Parents IDType = "parents"
	// Documents uses the ids as given.
	Documents IDType = "documents"
	// Ancestors adds ancestors of each id.
	Ancestors IDType = "ancestors"
)

// SearchStyle selects how terms are matched while scoring.
type SearchStyle string

// Scoring match styles.
const (
	Partial SearchStyle = "partial"
	Exact   SearchStyle = "exact"
)

// HideMenu is the tri-state menu visibility filter.
type HideMenu int

// Menu visibility states.
const (
	HideMenuShown  HideMenu = 0
	HideMenuHidden HideMenu = 1
	HideMenuIgnore HideMenu = 2
)

// Options is the resolved, typed option set of one search call.
type Options struct {
	IDs           []int64
	Exclude       []int64
	IDType        IDType
	Depth         int
	UseAllWords   bool
	SearchStyle   SearchStyle
	HideMenu      HideMenu
	MaxWords      int
	Combinator    filter.Combinator
	MatchWildcard bool
	DocFields     []string
	IncludeTVs    bool
	IncludeTVList []string
	ProcessTVs    bool
	TVPrefix      string
	// CustomPackages holds raw external package descriptors.
	CustomPackages []string
	Where          string
	SortBy         []string
	SortDir        []string
	// MaxInMemorySort caps the match count ranked in memory; 0 means unlimited.
	MaxInMemorySort int
	FallbackSortBy  string
	PerPage         int
	Start           int
	OffsetIndex     string
	FieldPotency    map[string]int
	Debug           bool
	Contexts        []string
}

// Defaults returns the documented defaults.
func Defaults() Options {
	return Options{
		IDType:         DefaultIDType,
		Depth:          DefaultDepth,
		SearchStyle:    DefaultSearchStyle,
		HideMenu:       DefaultHideMenu,
		MaxWords:       DefaultMaxWords,
		Combinator:     filter.FirstMandatoryRestOptional,
		MatchWildcard:  true,
		DocFields:      append([]string(nil), DefaultDocFields...),
		SortDir:        []string{DefaultSortDir},
		FallbackSortBy: DefaultFallbackSortBy,
		PerPage:        DefaultPerPage,
		OffsetIndex:    DefaultOffsetIndex,
		FieldPotency:   map[string]int{},
	}
}

// Resolve merges option layers (later layers win) and parses them over the
// defaults. Absent or invalid values keep their default.
func Resolve(layers ...map[string]string) Options {
	merged := make(map[string]string)
	for _, l := range layers {
		for k, v := range l {
			merged[k] = v
		}
	}
	return Parse(merged)
}

// Parse reads raw option values over the defaults.
func Parse(raw map[string]string) Options {
	o := Defaults()

	if v, ok := raw[KeyIDs]; ok {
		o.IDs = ParseIDs(v)
	}
	if v, ok := raw[KeyExclude]; ok {
		o.Exclude = ParseIDs(v)
	}
	if v, ok := raw[KeyIDType]; ok {
		switch t := IDType(strings.ToLower(strings.TrimSpace(v))); t {
		case Parents, Documents, Ancestors:
			o.IDType = t
		}
	}
	o.Depth = intOpt(raw, KeyDepth, o.Depth, 0)
	o.UseAllWords = boolOpt(raw, KeyUseAllWords, o.UseAllWords)
	if v, ok := raw[KeySearchStyle]; ok {
		switch s := SearchStyle(strings.ToLower(strings.TrimSpace(v))); s {
		case Partial, Exact:
			o.SearchStyle = s
		}
	}
	if n := intOpt(raw, KeyHideMenu, int(o.HideMenu), 0); n <= int(HideMenuIgnore) {
		o.HideMenu = HideMenu(n)
	}
	o.MaxWords = intOpt(raw, KeyMaxWords, o.MaxWords, 1)
	o.Combinator = filter.FromAndTerms(boolOpt(raw, KeyAndTerms, true))
	if v, ok := raw[KeyTermCombinator]; ok {
		if c := filter.Combinator(strings.ToLower(strings.TrimSpace(v))); c.IsValid() {
			o.Combinator = c
		}
	}
	o.MatchWildcard = boolOpt(raw, KeyMatchWildcard, o.MatchWildcard)
	if v, ok := raw[KeyDocFields]; ok {
		if fields := SplitList(v); len(fields) > 0 {
			o.DocFields = fields
		}
	}
	o.IncludeTVs = boolOpt(raw, KeyIncludeTVs, o.IncludeTVs)
	if v, ok := raw[KeyIncludeTVList]; ok {
		o.IncludeTVList = SplitList(v)
	}
	o.ProcessTVs = boolOpt(raw, KeyProcessTVs, o.ProcessTVs)
	if v, ok := raw[KeyTVPrefix]; ok {
		o.TVPrefix = strings.TrimSpace(v)
	}
	if v, ok := raw[KeyCustomPackages]; ok {
		o.CustomPackages = source.SplitDescriptors(v)
	}
	if v, ok := raw[KeyWhere]; ok {
		o.Where = strings.TrimSpace(v)
	}
	if v, ok := raw[KeySortBy]; ok {
		o.SortBy = SplitList(v)
	}
	if v, ok := raw[KeySortDir]; ok {
		if dirs := SplitList(v); len(dirs) > 0 {
			o.SortDir = dirs
		}
	}
	o.MaxInMemorySort = intOpt(raw, KeyMaxCountPhpSort, o.MaxInMemorySort, 0)
	if v, ok := raw[KeyFallbackSortBy]; ok {
		o.FallbackSortBy = strings.TrimSpace(v)
	}
	o.PerPage = intOpt(raw, KeyPerPage, o.PerPage, 0)
	o.Start = intOpt(raw, KeyStart, o.Start, 0)
	if v, ok := raw[KeyOffsetIndex]; ok && strings.TrimSpace(v) != "" {
		o.OffsetIndex = strings.TrimSpace(v)
	}
	if v, ok := raw[KeyFieldPotency]; ok {
		o.FieldPotency = ParsePotency(v)
	}
	o.Debug = boolOpt(raw, KeyDebug, o.Debug)
	if v, ok := raw[KeyContexts]; ok {
		o.Contexts = SplitList(v)
	}
	return o
}

// ApplyOffset overrides Start with a runtime parameter value when it is a
// non-negative integer.
func (o *Options) ApplyOffset(v string) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err == nil && n >= 0 {
		o.Start = n
	}
}

// AttachAttributes reports whether attribute values are added to results.
func (o Options) AttachAttributes() bool { return o.IncludeTVs || o.ProcessTVs }

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseIDs parses a comma-separated id list, dropping non-numeric and
// non-positive entries and duplicates.
func ParseIDs(s string) []int64 {
	var out []int64
	seen := make(map[int64]struct{})
	for _, p := range SplitList(s) {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n <= 0 {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// ParsePotency parses "field:weight" pairs. Entries without a valid
// non-negative integer weight are skipped.
func ParsePotency(s string) map[string]int {
	out := make(map[string]int)
	for _, p := range SplitList(s) {
		name, w, ok := strings.Cut(p, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(w))
		if err != nil || n < 0 {
			continue
		}
		out[name] = n
	}
	return out
}

func boolOpt(raw map[string]string, key string, def bool) bool {
	v, ok := raw[key]
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func intOpt(raw map[string]string, key string, def, minVal int) int {
	v, ok := raw[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < minVal {
		return def
	}
	return n
}
