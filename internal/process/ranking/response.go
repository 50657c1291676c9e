package ranking

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Response is what a judge returned. It is a closed set: Number, Text, Object
// and Unknown are the only implementations.
type Response interface {
	isResponse()
}

// Number is a bare numeric verdict.
type Number float64

// Text is a raw textual verdict: a number, a JSON object or noise, possibly fenced.
type Text string

// Object is an already decoded structured verdict.
type Object map[string]any

// Unknown wraps any other shape; it always scores zero.
type Unknown struct {
	Value any
}

func (Number) isResponse()  {}
func (Text) isResponse()    {}
func (Object) isResponse()  {}
func (Unknown) isResponse() {}

var (
	leadingFenceRe  = regexp.MustCompile("^```[A-Za-z0-9_]*\\r?\\n")
	trailingFenceRe = regexp.MustCompile("\\r?\\n```$")
)

// ResponseOf classifies an arbitrary decoded value.
func ResponseOf(v any) Response {
	switch t := v.(type) {
	case Response:
		return t
	case float64:
		return Number(t)
	case float32:
		return Number(t)
	case int:
		return Number(t)
	case int64:
		return Number(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Number(f)
		}

		return Text(t.String())
	case string:
		return Text(t)
	case map[string]any:
		return Object(t)
	default:
		return Unknown{Value: v}
	}
}

// ParseResponse extracts the raw (not yet normalized) score and an optional reason.
// Malformed input yields a zero score and no reason.
func ParseResponse(r Response) (float64, string) {
	switch v := r.(type) {
	case Number:
		return float64(v), ""
	case Text:
		return parseText(string(v))
	case Object:
		return scoreAndReason(v)
	default:
		return 0, ""
	}
}

func parseText(s string) (float64, string) {
	s = StripFences(s)

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, ""
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return 0, ""
	}

	return scoreAndReason(obj)
}

// StripFences removes one leading ```lang line and one trailing ``` line.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = leadingFenceRe.ReplaceAllString(s, "")
	s = trailingFenceRe.ReplaceAllString(s, "")

	return strings.TrimSpace(s)
}

func scoreAndReason(obj map[string]any) (float64, string) {
	score := coerceScore(obj["score"])

	reason, _ := obj["reason"].(string)
	if strings.TrimSpace(reason) == "" {
		reason = ""
	}

	return score, reason
}

func coerceScore(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case json.Number:
		f, _ := t.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}

		return f
	case bool:
		if t {
			return 1
		}

		return 0
	default:
		return 0
	}
}

// Normalize maps a raw score onto [0, 1]; values above 1 are read as percentages.
func Normalize(raw float64) float64 {
	if math.IsNaN(raw) {
		return 0
	}

	if raw > 1 {
		raw /= 100
	}

	return math.Max(0, math.Min(1, raw))
}
