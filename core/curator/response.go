package curator

import (
	"encoding/json"
	"fmt"
	"strings"

	"MagicLists/logger"
	"MagicLists/model"
)

// overrunFactor bounds how far past the requested count a response may run
// before it is treated as runaway output and rejected outright.
const overrunFactor = 1.5

// Interpret parses, sanitizes and validates raw AI output into an ordered,
// bounds-checked selection mapped back through indexMap. It never returns an
// error past this boundary: failures come back as a FailureReason for the
// orchestrator's fallback path.
//
// Processing order: strip code fences, locate the JSON, sanitize comment and
// trailing-comma slips, parse, validate structure and bounds, map indices to
// identifiers, repair a shortfall from the unused remainder of indexMap,
// truncate overshoot. Response order is playlist order throughout.
func Interpret(raw string, indexMap []string, requested int) (*model.CurationResult, FailureReason) {
	text := stripFences(raw)
	text = locateJSON(text)
	text = sanitizeJSON(text)

	selected, reasoning, reason := parseSelection(text, indexMap)
	if reason.Failed() {
		return nil, reason
	}

	if len(selected) == 0 {
		return nil, FailureReason{Kind: FailureMalformedResponse, Detail: "response contained no track selections"}
	}
	if float64(len(selected)) > overrunFactor*float64(requested) {
		return nil, FailureReason{
			Kind:   FailureMalformedResponse,
			Detail: fmt.Sprintf("response returned %d selections for a request of %d", len(selected), requested),
		}
	}

	// Map indices through the table, dropping out-of-range and repeated
	// entries individually rather than failing the whole response.
	trackIDs := make([]string, 0, len(selected))
	seen := make(map[string]bool, len(selected))
	dropped := 0
	for _, idx := range selected {
		if idx < 0 || idx >= len(indexMap) {
			dropped++
			continue
		}
		id := indexMap[idx]
		if seen[id] {
			dropped++
			continue
		}
		seen[id] = true
		trackIDs = append(trackIDs, id)
	}
	if dropped > 0 {
		logger.Warn("Dropped invalid AI selections",
			logger.Int("dropped", dropped),
			logger.Int("kept", len(trackIDs)),
			logger.Int("indexMapSize", len(indexMap)))
	}
	if len(trackIDs) == 0 {
		return nil, FailureReason{Kind: FailureMalformedResponse, Detail: "no selection survived index validation"}
	}

	// Shortfall repair: backfill from the unused remainder of the candidate
	// list in its existing order. Never pads with duplicates.
	if len(trackIDs) < requested {
		for _, id := range indexMap {
			if len(trackIDs) >= requested {
				break
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			trackIDs = append(trackIDs, id)
		}
	}

	if len(trackIDs) > requested {
		trackIDs = trackIDs[:requested]
	}

	if reasoning == "" {
		reasoning = "AI curation applied"
	}

	return &model.CurationResult{
		TrackIDs:  trackIDs,
		Reasoning: reasoning,
		AICurated: true,
	}, FailureReason{}
}

// stripFences removes a leading ``` (optionally with a language tag) and a
// trailing ``` so fenced responses parse like bare ones.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		first := strings.TrimSpace(text[:nl])
		// A bare word on the fence line is a language tag; JSON starts with
		// a brace or bracket.
		if first == "" || !strings.ContainsAny(first, "{[") {
			text = text[nl+1:]
		}
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// locateJSON extracts the most plausible JSON candidate: a {...} object
// containing "track_ids", else a bare [...] array (legacy shape), else the
// whole cleaned text.
func locateJSON(text string) string {
	if obj := balancedSpan(text, '{', '}'); obj != "" && strings.Contains(obj, "track_ids") {
		return obj
	}
	if arr := balancedSpan(text, '[', ']'); arr != "" {
		return arr
	}
	return text
}

// balancedSpan returns the first balanced open..close span, respecting JSON
// string literals, or "" when no balanced span exists.
func balancedSpan(text string, open, close byte) string {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// sanitizeJSON strips //-style comments outside string literals and removes
// trailing commas before a closing bracket or brace. URLs survive because
// their slashes live inside strings.
func sanitizeJSON(text string) string {
	var out strings.Builder
	out.Grow(len(text))

	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			out.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			out.WriteByte(c)

		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			// Comment runs to end of line.
			for i < len(text) && text[i] != '\n' {
				i++
			}
			if i < len(text) {
				out.WriteByte('\n')
			}

		case c == ',':
			// Drop the comma when the next non-whitespace closes a scope.
			j := i + 1
			for j < len(text) && (text[j] == ' ' || text[j] == '\t' || text[j] == '\n' || text[j] == '\r') {
				j++
			}
			if j < len(text) && (text[j] == ']' || text[j] == '}') {
				continue
			}
			out.WriteByte(c)

		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}

// parseSelection decodes the sanitized JSON and validates its structure.
// Integer lists are positional indices. A list of strings is accepted only
// as the legacy direct-identifier shape and is validated against the known
// identifier set, then translated back to indices so the caller has a single
// path.
func parseSelection(text string, indexMap []string) (indices []int, reasoning string, reason FailureReason) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, "", FailureReason{Kind: FailureMalformedResponse, Detail: err.Error()}
	}

	var rawList []any
	switch v := value.(type) {
	case map[string]any:
		listValue, ok := v["track_ids"]
		if !ok {
			return nil, "", FailureReason{Kind: FailureMalformedResponse, Detail: `response object missing "track_ids"`}
		}
		rawList, ok = listValue.([]any)
		if !ok {
			return nil, "", FailureReason{Kind: FailureMalformedResponse, Detail: `"track_ids" is not a list`}
		}
		if r, present := v["reasoning"]; present {
			s, ok := r.(string)
			if !ok {
				return nil, "", FailureReason{Kind: FailureMalformedResponse, Detail: `"reasoning" is not a string`}
			}
			reasoning = s
		}
	case []any:
		rawList = v
	default:
		return nil, "", FailureReason{Kind: FailureMalformedResponse, Detail: "response is neither an object nor a list"}
	}

	idByTrack := make(map[string]int, len(indexMap))
	for i, id := range indexMap {
		idByTrack[id] = i
	}

	indices = make([]int, 0, len(rawList))
	for _, elem := range rawList {
		switch e := elem.(type) {
		case float64:
			if e != float64(int(e)) {
				return nil, "", FailureReason{Kind: FailureMalformedResponse, Detail: fmt.Sprintf("non-integer selection %v", e)}
			}
			indices = append(indices, int(e))
		case string:
			// Legacy shape: the model echoed a real identifier.
			idx, known := idByTrack[e]
			if !known {
				// Unknown identifiers are dropped individually, mirroring
				// out-of-range index handling.
				idx = -1
			}
			indices = append(indices, idx)
		default:
			return nil, "", FailureReason{Kind: FailureMalformedResponse, Detail: fmt.Sprintf("selection element %v is neither integer nor string", elem)}
		}
	}
	return indices, reasoning, FailureReason{}
}
