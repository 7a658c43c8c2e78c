package csource

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	DefaultHeader  = "build_info.h"
	DefaultGitVar  = "build_git_info"
	DefaultTimeVar = "build_time"
)

var (
	ErrInvalidIdentifier = errors.New("csource: invalid C identifier")
	ErrInvalidHeader     = errors.New("csource: invalid header name")
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Names controls the header and symbol names used in generated files.
type Names struct {
	Header  string
	GitVar  string
	TimeVar string
}

// DefaultNames returns the names the downstream build declares.
func DefaultNames() Names {
	return Names{Header: DefaultHeader, GitVar: DefaultGitVar, TimeVar: DefaultTimeVar}
}

// Source is the content of a generated build info translation unit.
type Source struct {
	Names
	GitInfo   string
	BuildTime string
}

// Validate fills empty names with defaults and checks the result.
func (n Names) Validate() (Names, error) {
	out := n
	if strings.TrimSpace(out.Header) == "" {
		out.Header = DefaultHeader
	}
	if strings.TrimSpace(out.GitVar) == "" {
		out.GitVar = DefaultGitVar
	}
	if strings.TrimSpace(out.TimeVar) == "" {
		out.TimeVar = DefaultTimeVar
	}
	out.Header = strings.TrimSpace(out.Header)
	out.GitVar = strings.TrimSpace(out.GitVar)
	out.TimeVar = strings.TrimSpace(out.TimeVar)

	if strings.ContainsAny(out.Header, "\"<>") || hasControl(out.Header) {
		return Names{}, fmt.Errorf("%w %q", ErrInvalidHeader, out.Header)
	}
	for _, ident := range []string{out.GitVar, out.TimeVar} {
		if !identifierPattern.MatchString(ident) {
			return Names{}, fmt.Errorf("%w %q", ErrInvalidIdentifier, ident)
		}
	}
	if out.GitVar == out.TimeVar {
		return Names{}, fmt.Errorf("%w: %q used for both symbols", ErrInvalidIdentifier, out.GitVar)
	}
	return out, nil
}

// Render writes the include line followed by the two constant definitions.
// Header names are not string literals and carry no escapes, so the header is
// written as given.
func Render(w io.Writer, src Source) error {
	names, err := src.Names.Validate()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w,
		"#include \"%s\"\nconst char %s[] = %s;\nconst char %s[] = %s;\n",
		names.Header,
		names.GitVar, Quote(src.GitInfo),
		names.TimeVar, Quote(src.BuildTime),
	)
	if err != nil {
		return fmt.Errorf("writing source: %w", err)
	}
	return nil
}

// RenderHeader writes the declarations header matching Render's output.
func RenderHeader(w io.Writer, names Names) error {
	names, err := names.Validate()
	if err != nil {
		return err
	}
	guard := includeGuard(names.Header)
	_, err = fmt.Fprintf(w,
		"#ifndef %[1]s\n#define %[1]s\n\nextern const char %[2]s[];\nextern const char %[3]s[];\n\n#endif /* %[1]s */\n",
		guard, names.GitVar, names.TimeVar,
	)
	if err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

// Quote returns s as a C string literal.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				// octal escapes stop after three digits, hex ones do not
				_, _ = fmt.Fprintf(&b, `\%03o`, c)
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func includeGuard(header string) string {
	base := header
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(base) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	guard := b.String()
	if guard == "" || (guard[0] >= '0' && guard[0] <= '9') {
		guard = "_" + guard
	}
	return guard
}

func hasControl(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] == 0x7f {
			return true
		}
	}
	return false
}
