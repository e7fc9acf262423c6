package codec

import "strings"

// IsBuiltInDateFormat reports whether a built-in number format id renders a
// date. Ids 27-36 and 50-58 are the East Asian date formats.
func IsBuiltInDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 17:
		return true
	case id == 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

// IsDateFormatCode reports whether a custom number format code contains a
// year or day token outside of quoted literals, escapes and bracketed
// sections such as [Red] or [$-409]. Time-only codes are not dates.
func IsDateFormatCode(code string) bool {
	// Only the first section applies to positive numbers.
	section := code
	if i := strings.IndexByte(section, ';'); i >= 0 {
		section = section[:i]
	}

	inQuote := false
	inBracket := false
	for i := 0; i < len(section); i++ {
		ch := section[i]
		switch {
		case inQuote:
			if ch == '"' {
				inQuote = false
			}
		case inBracket:
			if ch == ']' {
				inBracket = false
			}
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		default:
			switch ch {
			case 'y', 'Y', 'd', 'D':
				return true
			}
		}
	}
	return false
}
