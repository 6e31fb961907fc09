package llm

import (
	"regexp"
	"strconv"
	"strings"
)

// ScoreReply is the parsed form of a numeric-score completion.
//
// Parsing never fails outright: OK reports whether a usable number was
// found, and callers substitute their own deterministic fallback when it
// is false. Raw always carries the original reply for logging.
type ScoreReply struct {
	// Value is the parsed score, clamped to [0, scale]. Zero when !OK.
	Value float64

	// OK reports whether the reply contained a parseable number.
	OK bool

	// Raw is the original completion text.
	Raw string
}

var numberPattern = regexp.MustCompile(`-?\d+(\.\d+)?`)

// ParseScoreReply extracts a numeric score from a completion reply.
//
// Models asked to "answer with only the number" still sometimes wrap it
// ("Score: 7", "7/10", "I'd say 7."), so the first number anywhere in the
// reply is accepted. Values outside [0, scale] are clamped.
func ParseScoreReply(raw string, scale float64) ScoreReply {
	reply := ScoreReply{Raw: raw}

	text := strings.TrimSpace(raw)
	if text == "" {
		return reply
	}

	// Fast path: the model obeyed the prompt
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		reply.Value = clamp(v, 0, scale)
		reply.OK = true
		return reply
	}

	match := numberPattern.FindString(text)
	if match == "" {
		return reply
	}

	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return reply
	}

	reply.Value = clamp(v, 0, scale)
	reply.OK = true
	return reply
}

// SummaryReply is the parsed form of a context-generation completion.
type SummaryReply struct {
	// Text is the cleaned summary. Empty when !OK.
	Text string

	// OK reports whether the reply contained usable text.
	OK bool
}

// ParseSummaryReply cleans a context-generation completion. Quoting and
// preamble labels the model adds despite instructions are stripped.
func ParseSummaryReply(raw string) SummaryReply {
	text := strings.TrimSpace(raw)
	text = strings.Trim(text, `"`)

	for _, prefix := range []string{"Context:", "Summary:", "context:", "summary:"} {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
			break
		}
	}

	if text == "" {
		return SummaryReply{}
	}
	return SummaryReply{Text: text, OK: true}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
