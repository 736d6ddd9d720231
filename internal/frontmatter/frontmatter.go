package frontmatter

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// Style captures formatting details needed for stable rewriting.
//
// It intentionally focuses on newline/trailing newline shape and does not
// attempt to preserve original YAML formatting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

const delimiter = "---"

// Split separates a `---` delimited header from the body.
//
// A delimiter is a line holding exactly three dashes, optionally followed by
// whitespace. The header must open on the first line. When the document has no
// opening delimiter, or opens one but never closes it, had is false and body is
// the full input.
func Split(content []byte) (header []byte, body []byte, had bool, style Style) {
	style = detectStyle(content)

	first, rest, ok := cutLine(content)
	if !ok || !isDelimiter(first) {
		return nil, content, false, style
	}

	headerStart := len(content) - len(rest)
	pos := headerStart
	for pos < len(content) || pos == headerStart {
		line, next, found := cutLine(content[pos:])
		if isDelimiter(line) {
			bodyStart := len(content) - len(next)
			if !found {
				bodyStart = len(content)
			}
			return content[headerStart:pos], content[bodyStart:], true, style
		}
		if !found {
			break
		}
		pos = len(content) - len(next)
	}
	return nil, content, false, style
}

// cutLine returns the first line (without its line ending) and the remainder.
// found is false when content holds no newline at all.
func cutLine(content []byte) (line, rest []byte, found bool) {
	idx := bytes.IndexByte(content, '\n')
	if idx < 0 {
		return content, nil, false
	}
	return bytes.TrimSuffix(content[:idx], []byte("\r")), content[idx+1:], true
}

func isDelimiter(line []byte) bool {
	if !bytes.HasPrefix(line, []byte(delimiter)) {
		return false
	}
	return len(bytes.TrimSpace(line[len(delimiter):])) == 0
}

// Join reassembles a document from raw header and body.
//
// If had is false, Join returns body as-is.
func Join(header []byte, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}

	line := []byte(delimiter + nl)
	out := make([]byte, 0, 2*len(line)+len(header)+len(body))
	out = append(out, line...)
	out = append(out, header...)
	out = append(out, line...)
	out = append(out, body...)
	return out
}

// ParseYAML parses a raw header (without delimiters) into a flat map.
// Documents that are not a YAML mapping are rejected.
func ParseYAML(header []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(header)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(header, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			break
		}
	}

	return Style{
		Newline:            newline,
		HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n',
	}
}
