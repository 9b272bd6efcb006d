// Package rules applies deterministic transcript substitutions loaded from a
// plain-text rules file. Two line forms are supported:
//
//	literal => replacement
//	s/pattern/replacement/flags
//
// Lines starting with # are comments. Regex flags: i (case-insensitive,
// default on), g (replace every occurrence instead of the first).
package rules

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

const literalSeparator = " => "

type rule interface {
	apply(input string) (output string, changed bool)
}

// Engine applies substitutions until the text is stable, capped by an
// iteration limit so mutually recursive rules cannot loop forever.
type Engine struct {
	rules []rule
	limit int
}

// NewEngine loads and compiles rules from a file. A missing or empty path
// yields an engine that passes text through untouched.
func NewEngine(path string, limit int) (*Engine, error) {
	if limit <= 0 {
		limit = 30
	}
	if strings.TrimSpace(path) == "" {
		return &Engine{limit: limit}, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Engine{limit: limit}, nil
		}
		return nil, fmt.Errorf("failed to read rules file %q: %w", path, err)
	}

	compiled, err := parse(string(contents))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules file %q: %w", path, err)
	}
	return &Engine{rules: compiled, limit: limit}, nil
}

// Apply transforms text deterministically.
func (e *Engine) Apply(text string) (string, error) {
	if len(e.rules) == 0 {
		return text, nil
	}

	result := text
	for pass := 0; pass < e.limit; pass++ {
		changed := false
		for _, r := range e.rules {
			next, ruleChanged := r.apply(result)
			if ruleChanged {
				result = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return result, nil
}

func parse(contents string) ([]rule, error) {
	var compiled []rule
	for index, raw := range strings.Split(contents, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var (
			parsed rule
			err    error
		)
		if isRegexForm(line) {
			parsed, err = parseRegex(line)
		} else if strings.Contains(line, literalSeparator) {
			parsed, err = parseLiteral(line)
		} else {
			err = errors.New("unsupported rule format")
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", index+1, err)
		}
		compiled = append(compiled, parsed)
	}
	return compiled, nil
}

type literalRule struct {
	from string
	to   string
}

func parseLiteral(line string) (rule, error) {
	parts := strings.SplitN(line, literalSeparator, 2)
	from := strings.TrimSpace(parts[0])
	if from == "" {
		return nil, errors.New("literal rule needs a non-empty left side")
	}
	return literalRule{from: from, to: strings.TrimSpace(parts[1])}, nil
}

func (r literalRule) apply(input string) (string, bool) {
	output := strings.ReplaceAll(input, r.from, r.to)
	return output, output != input
}

type regexRule struct {
	re          *regexp.Regexp
	replacement string
	global      bool
}

func isRegexForm(line string) bool {
	return len(line) > 1 && line[0] == 's' && !isWordByte(line[1])
}

func parseRegex(line string) (rule, error) {
	delim := line[1]
	pattern, pos, err := readUntil(line, 2, delim)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	replacement, pos, err := readUntil(line, pos, delim)
	if err != nil {
		return nil, fmt.Errorf("invalid replacement: %w", err)
	}

	ignoreCase := true
	global := false
	for _, flag := range strings.TrimSpace(line[pos:]) {
		switch flag {
		case 'i':
			ignoreCase = true
		case 'g':
			global = true
		default:
			return nil, fmt.Errorf("unsupported flag %q", flag)
		}
	}

	if ignoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex: %w", err)
	}
	return regexRule{re: re, replacement: replacement, global: global}, nil
}

func (r regexRule) apply(input string) (string, bool) {
	if r.global {
		output := r.re.ReplaceAllString(input, r.replacement)
		return output, output != input
	}

	loc := r.re.FindStringIndex(input)
	if loc == nil {
		return input, false
	}
	replaced := r.re.ReplaceAllString(input[loc[0]:loc[1]], r.replacement)
	output := input[:loc[0]] + replaced + input[loc[1]:]
	return output, output != input
}

func readUntil(line string, start int, delim byte) (string, int, error) {
	if start >= len(line) {
		return "", 0, errors.New("unexpected end of expression")
	}

	var builder strings.Builder
	escaped := false
	for index := start; index < len(line); index++ {
		char := line[index]
		if escaped {
			builder.WriteByte(char)
			escaped = false
			continue
		}
		switch char {
		case '\\':
			escaped = true
			builder.WriteByte(char)
		case delim:
			return builder.String(), index + 1, nil
		default:
			builder.WriteByte(char)
		}
	}
	return "", 0, errors.New("unterminated expression")
}

func isWordByte(char byte) bool {
	return (char >= 'a' && char <= 'z') ||
		(char >= 'A' && char <= 'Z') ||
		(char >= '0' && char <= '9') ||
		char == ' ' || char == '\t'
}
