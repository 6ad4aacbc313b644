// Package term normalizes raw query strings into bounded search term lists.
package term

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer splits a sanitized string into words.
type Tokenizer func(string) []string

var (
	bindingRe    = regexp.MustCompile(`@@[^@]*@@|@(?:INHERIT|EVAL|FILE|CHUNK|DOCUMENT|SELECT|DIRECTORY)\b`)
	tagDelimiter = strings.NewReplacer(
		"[[", "", "]]", "",
		"[!", "", "!]", "",
		"{{", "", "}}", "",
		"`", "",
	)
)

// Extractor turns raw query strings into ordered term lists.
type Extractor struct {
	tokenize Tokenizer
}

// New creates an Extractor. A nil tokenizer uses Words.
func New(tokenize Tokenizer) *Extractor {
	if tokenize == nil {
		tokenize = Words
	}
	return &Extractor{tokenize: tokenize}
}

// Extract sanitizes raw and returns at most maxWords terms in order.
// With useAllWords unset the whole sanitized string is the only term.
// maxWords <= 0 disables the cap.
func (e *Extractor) Extract(raw string, useAllWords bool, maxWords int) []string {
	clean := Sanitize(raw)
	if clean == "" {
		return nil
	}

	var terms []string
	if useAllWords {
		terms = e.tokenize(clean)
	} else {
		terms = []string{clean}
	}

	if maxWords > 0 && len(terms) > maxWords {
		terms = terms[:maxWords]
	}
	return terms
}

// Sanitize strips markup, template tag delimiters and bindings, normalizes
// to NFC and collapses whitespace.
func Sanitize(raw string) string {
	s := stripMarkup(raw)
	s = bindingRe.ReplaceAllString(s, "")
	s = tagDelimiter.Replace(s)
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Words splits on whitespace and trims surrounding punctuation.
func Words(s string) []string {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// stripMarkup keeps the text content of an HTML fragment, dropping script and
// style bodies. Tags are replaced by a space so adjacent words stay apart.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			if isRawText(name) {
				skip++
			}
			sb.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if isRawText(name) && skip > 0 {
				skip--
			}
			sb.WriteByte(' ')
		case html.SelfClosingTagToken:
			sb.WriteByte(' ')
		}
	}
}

func isRawText(name []byte) bool {
	n := string(name)
	return n == "script" || n == "style"
}
