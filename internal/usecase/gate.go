package usecase

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"wakescribe/internal/domain"
)

// noticeKind identifies an outward notification produced by the gate.
type noticeKind int

const (
	noticeTranscript noticeKind = iota
	noticeWake
	noticeSleep
)

type notice struct {
	kind  noticeKind
	text  string
	final bool
}

// wakeGate is the wake/sleep transcription state machine. It consumes
// recognition events one at a time and accumulates committed text only while
// the gate is open. The gate is the single source of truth for activation and
// transcript state; callers must serialize Process invocations.
type wakeGate struct {
	wakeWord  string
	sleepWord string

	active     bool
	transcript string
	interim    string
}

func newWakeGate(wakeWord, sleepWord string) *wakeGate {
	return &wakeGate{
		wakeWord:  strings.ToLower(strings.TrimSpace(wakeWord)),
		sleepWord: strings.ToLower(strings.TrimSpace(sleepWord)),
	}
}

func (g *wakeGate) setWords(wakeWord, sleepWord string) {
	g.wakeWord = strings.ToLower(strings.TrimSpace(wakeWord))
	g.sleepWord = strings.ToLower(strings.TrimSpace(sleepWord))
}

// Process applies one recognition event and returns the notifications it
// produced, in emission order. Final hypotheses are handled before the interim
// preview, and any final text supersedes the interim it replaces.
func (g *wakeGate) Process(event domain.RecognitionEvent) []notice {
	var finalText, interimText strings.Builder
	for _, h := range event.Hypotheses {
		if h.Final {
			finalText.WriteString(h.Text)
		} else {
			interimText.WriteString(h.Text)
		}
	}

	var out []notice
	if text := finalText.String(); text != "" {
		g.interim = ""
		out = append(out, g.processFinal(text)...)
	}
	if text := interimText.String(); text != "" {
		g.interim = text
		out = append(out, notice{kind: noticeTranscript, text: text, final: false})
	}
	return out
}

// processFinal routes one committed text segment through the transition table.
// Matching is a first-occurrence, case-insensitive substring search; a wake
// word embedded inside a longer word still triggers. At most one of wake or
// sleep fires per segment: the sleep word is inert while waiting and the wake
// word is inert while active.
func (g *wakeGate) processFinal(text string) []notice {
	out := []notice{{kind: noticeTranscript, text: text, final: true}}

	if !g.active {
		start, end := foldIndex(text, g.wakeWord)
		if start < 0 {
			// Not addressed to us; surfaced to observers, never accumulated.
			return out
		}
		g.active = true
		g.transcript = ""
		g.interim = ""
		out = append(out, notice{kind: noticeWake})
		if trailing := strings.TrimSpace(text[end:]); trailing != "" {
			g.transcript = trailing + " "
		}
		return out
	}

	start, _ := foldIndex(text, g.sleepWord)
	if start < 0 {
		g.transcript += text + " "
		return out
	}
	if leading := strings.TrimSpace(text[:start]); leading != "" {
		g.transcript += leading + " "
	}
	g.active = false
	g.interim = ""
	out = append(out, notice{kind: noticeSleep})
	return out
}

// foldIndex locates the first case-insensitive occurrence of word in text and
// returns its start and end byte offsets, or (-1, -1). The offsets index the
// original text: lowering a string can change its byte length (U+023A lowers
// from two bytes to three), so indices found in a lowered copy must never be
// used to slice the original.
func foldIndex(text, word string) (int, int) {
	if word == "" {
		return -1, -1
	}
	for i := 0; i < len(text); {
		j, k := i, 0
		for k < len(word) && j < len(text) {
			tr, tn := utf8.DecodeRuneInString(text[j:])
			wr, wn := utf8.DecodeRuneInString(word[k:])
			if unicode.ToLower(tr) != unicode.ToLower(wr) {
				break
			}
			j += tn
			k += wn
		}
		if k == len(word) {
			return i, j
		}
		_, n := utf8.DecodeRuneInString(text[i:])
		i += n
	}
	return -1, -1
}

// Reset clears accumulated and interim text without touching activation.
func (g *wakeGate) Reset() {
	g.transcript = ""
	g.interim = ""
}

// Deactivate forces the gate shut without emitting a sleep notification,
// leaving the transcript intact.
func (g *wakeGate) Deactivate() {
	g.active = false
	g.interim = ""
}
