package source

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/sitesearch/internal/domain"
)

// DescriptorSeparator separates descriptors in the customPackages option.
const DescriptorSeparator = "||"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Descriptor is a parsed external package entry:
// class:fields:packageId:packagePath:joinCondition.
type Descriptor struct {
	class   string
	fields  []string
	pkg     string
	path    string
	joinCon string
}

// ParseDescriptor parses a single descriptor. The join condition keeps any
// colons it contains.
func ParseDescriptor(s string) (Descriptor, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 5)
	if len(parts) < 5 || strings.TrimSpace(parts[4]) == "" {
		return Descriptor{}, fmt.Errorf("%w: %q: join condition is required", domain.ErrInvalidDescriptor, s)
	}
	class := strings.TrimSpace(parts[0])
	if !identRe.MatchString(class) {
		return Descriptor{}, fmt.Errorf("%w: class %q", domain.ErrInvalidIdentifier, class)
	}
	var fields []string
	for _, f := range strings.Split(parts[1], ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if !identRe.MatchString(f) {
			return Descriptor{}, fmt.Errorf("%w: field %q of %s", domain.ErrInvalidIdentifier, f, class)
		}
		fields = append(fields, f)
	}
	return Descriptor{
		class:   class,
		fields:  fields,
		pkg:     strings.TrimSpace(parts[2]),
		path:    strings.TrimSpace(parts[3]),
		joinCon: strings.TrimSpace(parts[4]),
	}, nil
}

// SplitDescriptors splits the raw option value into descriptor strings.
func SplitDescriptors(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, DescriptorSeparator) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Class returns the record class, also used as the join alias.
func (d Descriptor) Class() string { return d.class }

// Fields returns the searchable and selected fields.
func (d Descriptor) Fields() []string { return d.fields }

// Package returns the package identifier.
func (d Descriptor) Package() string { return d.pkg }

// Path returns the package path, possibly with placeholders.
func (d Descriptor) Path() string { return d.path }

// JoinCondition returns the literal join condition.
func (d Descriptor) JoinCondition() string { return d.joinCon }

// Source is a registered external record source.
type Source struct {
	class string
	table string
	pkg   string
}

// New validates and creates a Source.
func New(class, table, pkg string) (Source, error) {
	if !identRe.MatchString(class) {
		return Source{}, fmt.Errorf("%w: class %q", domain.ErrInvalidIdentifier, class)
	}
	if table == "" {
		table = class
	}
	if !identRe.MatchString(table) {
		return Source{}, fmt.Errorf("%w: table %q", domain.ErrInvalidIdentifier, table)
	}
	return Source{class: class, table: table, pkg: pkg}, nil
}

// Class returns the class name.
func (s Source) Class() string { return s.class }

// Table returns the backing table name.
func (s Source) Table() string { return s.table }

// Package returns the owning package identifier.
func (s Source) Package() string { return s.pkg }

// Paths holds the values substituted for path placeholders.
type Paths struct {
	Core   string
	Assets string
	Base   string
}

// ResolvePath substitutes {core_path}, {assets_path} and {base_path}.
func ResolvePath(path string, p Paths) string {
	return strings.NewReplacer(
		"{core_path}", p.Core,
		"{assets_path}", p.Assets,
		"{base_path}", p.Base,
	).Replace(path)
}
