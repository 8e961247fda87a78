package tree

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultDelimiter separates path segments when no delimiter is given.
const DefaultDelimiter = "."

var (
	indexedSegment = regexp.MustCompile(`^([^\[\]]*)((?:\[[0-9]+\])+)$`)
	indexPart      = regexp.MustCompile(`\[([0-9]+)\]`)
)

// Token is a single step of a Path: either a mapping key or a sequence index.
type Token struct {
	key     string
	index   int
	isIndex bool
}

// Key returns a mapping-key token.
func Key(k string) Token { return Token{key: k} }

// Idx returns a sequence-index token.
func Idx(i int) Token { return Token{index: i, isIndex: true} }

// IsIndex reports whether the token was written as a sequence index.
func (t Token) IsIndex() bool { return t.isIndex }

// Key returns the mapping key the token addresses. Index tokens address the
// decimal form of their index.
func (t Token) Key() string {
	if t.isIndex {
		return strconv.Itoa(t.index)
	}
	return t.key
}

// Index returns the sequence index the token addresses. Key tokens address an
// index only when they are a canonical non-negative decimal ("0", "12", not "012").
func (t Token) Index() (int, bool) {
	if t.isIndex {
		return t.index, true
	}
	return canonicalIndex(t.key)
}

func (t Token) String() string {
	if t.isIndex {
		return "[" + strconv.Itoa(t.index) + "]"
	}
	return t.key
}

// Path is an ordered list of tokens. The empty Path addresses the root.
type Path []Token

// ParsePath splits a delimited path string into tokens.
//
// Surrounding whitespace and a single leading delimiter are stripped. Each
// segment of the form name[i] (or name[i][j]...) yields the key token followed
// by its index tokens. Only the empty string addresses the root; an empty
// segment anywhere, including a lone delimiter, is an error.
func ParsePath(path, delim string) (Path, error) {
	if delim == "" {
		delim = DefaultDelimiter
	}
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return Path{}, nil
	}
	return splitPath(path, strings.TrimPrefix(trimmed, delim), delim, false)
}

// parseFlatPath parses a path produced by Flatten. Empty segments are
// empty-string keys, so "." addresses the key "" of the root mapping.
func parseFlatPath(path, delim string) (Path, error) {
	if delim == "" {
		delim = DefaultDelimiter
	}
	if path == "" {
		return Path{}, nil
	}
	return splitPath(path, strings.TrimPrefix(path, delim), delim, true)
}

func splitPath(path, body, delim string, flat bool) (Path, error) {
	segments := strings.Split(body, delim)
	p := make(Path, 0, len(segments))
	for _, seg := range segments {
		if !flat && strings.TrimSpace(seg) == "" {
			return nil, &PathError{Op: "parse", Path: path, Err: fmt.Errorf("%w: empty segment", ErrInvalidPath)}
		}
		m := indexedSegment.FindStringSubmatch(seg)
		if m == nil || (!flat && m[1] == "") {
			p = append(p, Key(seg))
			continue
		}
		p = append(p, Key(m[1]))
		for _, im := range indexPart.FindAllStringSubmatch(m[2], -1) {
			i, err := strconv.Atoi(im[1])
			if err != nil {
				return nil, &PathError{Op: "parse", Path: path, Err: fmt.Errorf("%w: index %s", ErrInvalidPath, im[1])}
			}
			p = append(p, Idx(i))
		}
	}
	return p, nil
}

// MustParsePath is like ParsePath but panics on error.
func MustParsePath(path, delim string) Path {
	p, err := ParsePath(path, delim)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the path in wire form. Index tokens that follow another token
// use the bracket form; a leading index token is written as a plain segment.
func (p Path) String(delim string) string {
	if delim == "" {
		delim = DefaultDelimiter
	}
	var b strings.Builder
	for i, t := range p {
		if t.isIndex && i > 0 {
			b.WriteString(t.String())
			continue
		}
		if i > 0 {
			b.WriteString(delim)
		}
		b.WriteString(t.Key())
	}
	return b.String()
}

// Parent splits the path into its parent and last token. It must not be called
// on the root path.
func (p Path) Parent() (Path, Token) {
	return p[:len(p)-1], p[len(p)-1]
}

func canonicalIndex(s string) (int, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return i, true
}
