package query

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	special = regexp.MustCompile(`['".]`)

	// atom matches one path segment: a double-quoted run, a single-quoted
	// run (both with optional surrounding whitespace) or a bare run of
	// characters that are neither quotes nor dots.
	atom = regexp.MustCompile(`\s*"[^"]+"\s*|\s*'[^']+'\s*|[^'".]+`)

	integer = regexp.MustCompile(`^[+-]?[0-9]+$`)
)

// Split breaks a user query into path segments.
//
// Queries without quotes or dots are returned whole. Otherwise the query
// is tokenized on dots, quoted runs are kept together (and may contain
// dots), segments are trimmed, quotes are stripped and unquoted numeric
// segments become index segments. A query whose dots cannot all be
// accounted for is returned verbatim as a single segment, so malformed
// queries simply match nothing.
func Split(q string) []Segment {
	if !special.MatchString(q) {
		return []Segment{Str(q)}
	}

	matches := atom.FindAllStringIndex(q, -1)
	if len(matches) == 0 || matches[0][0] != 0 {
		return []Segment{Str(q)}
	}

	raw := make([]string, 0, len(matches))
	end := 0
	for i, match := range matches {
		if i > 0 && q[end:match[0]] != "." {
			return []Segment{Str(q)}
		}
		raw = append(raw, q[match[0]:match[1]])
		end = match[1]
	}
	if end != len(q) {
		return []Segment{Str(q)}
	}

	return generateSegments(raw)
}

func generateSegments(raw []string) []Segment {
	segments := make([]Segment, 0, len(raw))
	for _, token := range raw {
		token = strings.TrimSpace(token)
		switch {
		case strings.HasPrefix(token, `"`) || strings.HasPrefix(token, `'`):
			segments = append(segments, Str(token[1:len(token)-1]))
		case integer.MatchString(token):
			index, err := strconv.Atoi(token)
			if err != nil {
				// overflows int: keep it addressable as a key
				segments = append(segments, Str(token))
				continue
			}
			segments = append(segments, Int(index))
		default:
			segments = append(segments, Str(token))
		}
	}
	return segments
}

// Join renders segments back into a dotted query. Key segments that would
// not survive a round trip through Split on their own are double-quoted.
func Join(segments []Segment) string {
	parts := make([]string, len(segments))
	for i, segment := range segments {
		if segment.IsIndex {
			parts[i] = strconv.Itoa(segment.Index)
			continue
		}
		key := segment.Key
		if needsQuoting(key) {
			if strings.Contains(key, `"`) {
				key = "'" + key + "'"
			} else {
				key = `"` + key + `"`
			}
		}
		parts[i] = key
	}
	return strings.Join(parts, ".")
}

func needsQuoting(key string) bool {
	return key == "" || special.MatchString(key) || integer.MatchString(strings.TrimSpace(key)) ||
		strings.TrimSpace(key) != key
}
