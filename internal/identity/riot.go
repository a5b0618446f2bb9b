package identity

import (
	"strings"
)

// Riot is the human-facing address of a game account. Tag is nil when the
// tag line is not known, which is different from an empty tag.
type Riot struct {
	Name string
	Tag  *string
}

func Parse(raw string) Riot {
	raw = strings.TrimSpace(raw)
	idx := strings.LastIndex(raw, "#")
	if idx < 0 {
		return Riot{Name: raw}
	}
	tag := strings.TrimSpace(raw[idx+1:])
	return Riot{Name: strings.TrimSpace(raw[:idx]), Tag: &tag}
}

func New(name, tag string) Riot {
	return Riot{Name: name, Tag: &tag}
}

func (r Riot) HasTag() bool {
	return r.Tag != nil
}

func (r Riot) IsZero() bool {
	return r.Name == "" && r.Tag == nil
}

// TagOrEmpty is for callers that need a plain string, e.g. storage columns.
func (r Riot) TagOrEmpty() string {
	if r.Tag == nil {
		return ""
	}
	return *r.Tag
}

func (r Riot) WithTag(tag string) Riot {
	return Riot{Name: r.Name, Tag: &tag}
}

// KeepTag returns r with the tag of known when r carries none. A missing
// tag means unknown, so it never clears a known one.
func (r Riot) KeepTag(known Riot) Riot {
	if r.Tag != nil || known.Tag == nil {
		return r
	}
	return r.WithTag(*known.Tag)
}

// Equal compares names case-insensitively and tags exactly.
func (r Riot) Equal(other Riot) bool {
	if !strings.EqualFold(r.Name, other.Name) {
		return false
	}
	if r.Tag == nil || other.Tag == nil {
		return r.Tag == nil && other.Tag == nil
	}
	return *r.Tag == *other.Tag
}

func (r Riot) String() string {
	if r.Tag == nil {
		return r.Name
	}
	return r.Name + "#" + *r.Tag
}
