package record

import "strings"

// ParseKeyValue scans line for key=value and key="value" tokens.
// Tokens that are not key=value pairs are skipped.
func ParseKeyValue(line string) (Record, error) {
	quoted := make(map[string]string)
	plain := make(map[string]string)

	i := 0
	n := len(line)
	for i < n {
		for i < n && isSpace(line[i]) {
			i++
		}
		if i >= n {
			break
		}

		start := i
		for i < n && isKeyByte(line[i]) {
			i++
		}
		if i == start || i >= n || line[i] != '=' {
			i = skipToken(line, i)
			continue
		}
		key := line[start:i]
		i++ // '='

		if i < n && line[i] == '"' {
			value, end, ok := scanQuoted(line, i+1)
			if ok {
				quoted[key] = value
				i = end
				continue
			}
		}

		vstart := i
		for i < n && !isSpace(line[i]) {
			i++
		}
		plain[key] = line[vstart:i]
	}

	if len(quoted) == 0 && len(plain) == 0 {
		return nil, ErrNoFields
	}

	rec := make(Record, len(quoted)+len(plain))
	for k, v := range plain {
		rec[k] = v
	}
	for k, v := range quoted {
		rec[k] = v
	}
	return rec, nil
}

// scanQuoted reads a quoted value starting just after the opening quote and
// returns the unescaped value and the index just past the closing quote.
func scanQuoted(line string, i int) (string, int, bool) {
	var b strings.Builder
	for i < len(line) {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line) && (line[i+1] == '"' || line[i+1] == '\\'):
			b.WriteByte(line[i+1])
			i += 2
		case c == '"':
			return b.String(), i + 1, true
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, false
}

func skipToken(line string, i int) int {
	for i < len(line) && !isSpace(line[i]) {
		if line[i] == '"' {
			if _, end, ok := scanQuoted(line, i+1); ok {
				i = end
				continue
			}
		}
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f'
}

func isKeyByte(c byte) bool {
	return c == '_' || c == '.' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
