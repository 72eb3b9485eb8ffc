package ordinal

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// primaryField and fallbackFields are the known set of integer field IDs
// a legacy client may have carried the inscription payload under. The
// ordering is inherited verbatim as a format-sniffing heuristic; it only
// matters when more than one field would parse.
const primaryField = 1000

var fallbackFields = []int{0, 1, 2, 5, 10, 100, 999}

// ParseInscription extracts and validates the JSON-ish inscription
// payload carried in a transaction's user fields. It never returns an
// error: a malformed or irrelevant payload simply yields (nil, false),
// and parsing never aborts block processing.
func ParseInscription(tx Transaction) (*Inscription, bool) {
	raw, ok := selectPayloadField(tx.UserFields)
	if !ok {
		return nil, false
	}

	fields, ok := parseFlatObject(raw)
	if !ok {
		return nil, false
	}

	p := strings.ToLower(strings.TrimSpace(fields["p"]))
	op := strings.ToLower(strings.TrimSpace(fields["op"]))

	switch {
	case hasAll(fields, "cns") && (p == "cdns" || p == "cns") && isCNSOp(op):
		name := fields["cns"]
		if name == "" || strings.ContainsRune(name, ' ') || !utf8.ValidString(name) {
			return nil, false
		}
		return &Inscription{
			Kind:       KindCNS,
			Namespace:  p,
			Op:         op,
			Name:       name,
			NameNorm:   strings.ToLower(name),
			Relay:      fields["relay"],
			RawPayload: raw,
		}, true

	case hasAll(fields, "tick", "amt") && op == "mint":
		amt, err := strconv.ParseInt(strings.TrimSpace(fields["amt"]), 10, 64)
		if err != nil || amt <= 0 {
			return nil, false
		}
		return &Inscription{
			Kind:       KindToken,
			Op:         op,
			Tick:       fields["tick"],
			Amt:        amt,
			RawPayload: raw,
		}, true

	case hasAll(fields, "tick", "max", "lim") && op == "deploy":
		max, err1 := strconv.ParseInt(strings.TrimSpace(fields["max"]), 10, 64)
		lim, err2 := strconv.ParseInt(strings.TrimSpace(fields["lim"]), 10, 64)
		if err1 != nil || err2 != nil || max <= 0 || lim <= 0 {
			return nil, false
		}
		return &Inscription{
			Kind:       KindDeploy,
			Op:         op,
			Tick:       fields["tick"],
			Max:        max,
			Lim:        lim,
			RawPayload: raw,
		}, true

	default:
		return nil, false
	}
}

func isCNSOp(op string) bool {
	return op == "reg" || op == "upd" || op == "trf"
}

func hasAll(fields map[string]string, keys ...string) bool {
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			return false
		}
	}
	return true
}

// selectPayloadField reads the primary user field (1000); if absent or not
// a non-empty string, tries each fallback ID in order and accepts the
// first whose value contains both "p" and "op" as quoted JSON keys.
func selectPayloadField(fields map[int]string) (string, bool) {
	if v, ok := fields[primaryField]; ok && v != "" {
		return v, true
	}
	for _, id := range fallbackFields {
		if v, ok := fields[id]; ok && looksLikeInscription(v) {
			return v, true
		}
	}
	return "", false
}

func looksLikeInscription(v string) bool {
	return strings.Contains(v, `"p"`) && strings.Contains(v, `"op"`)
}

// parseFlatObject is a tolerant, non-recursive parser for a flat object
// `{key:value, ...}` where every key and value is a quoted scalar. It
// strips the outer braces, splits on top-level commas (quote-aware, no
// brace-depth tracking — nesting is explicitly unsupported), then splits
// each pair on its first colon. Whitespace and surrounding quotes are
// stripped from both sides.
func parseFlatObject(s string) (map[string]string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, false
	}
	inner := s[1 : len(s)-1]

	result := make(map[string]string)
	for _, pair := range splitTopLevel(inner, ',') {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := strings.Index(pair, ":")
		if idx < 0 {
			return nil, false
		}
		k := unquote(strings.TrimSpace(pair[:idx]))
		v := unquote(strings.TrimSpace(pair[idx+1:]))
		if k == "" {
			return nil, false
		}
		result[k] = v
	}
	return result, true
}

// splitTopLevel splits on sep, skipping occurrences inside double quotes.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	inQuotes := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuotes = !inQuotes
		case sep:
			if !inQuotes {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}
