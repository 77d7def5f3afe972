package values

// MatchGlob reports whether s matches the Redis-style glob pattern used by
// KEYS, SCAN's MATCH option, and pub/sub pattern subscriptions (spec §4.1):
// '*' matches any run of characters, '?' matches exactly one, and
// '[...]' matches a character class (with leading '^' for negation and
// 'a-z' ranges); any other character matches itself literally, including
// after a backslash escape.
func MatchGlob(pattern, s string) bool {
	return matchGlob([]rune(pattern), []rune(s))
}

func matchGlob(pattern, s []rune) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 1 && pattern[1] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if matchGlob(pattern[1:], s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			s = s[1:]
			pattern = pattern[1:]
		case '[':
			if len(s) == 0 {
				return false
			}
			end := indexRune(pattern, ']')
			if end < 0 {
				return matchLiteral(pattern, s)
			}
			class := pattern[1:end]
			negate := false
			if len(class) > 0 && class[0] == '^' {
				negate = true
				class = class[1:]
			}
			if classMatches(class, s[0]) == negate {
				return false
			}
			s = s[1:]
			pattern = pattern[end+1:]
		case '\\':
			if len(pattern) > 1 {
				pattern = pattern[1:]
			}
			if len(s) == 0 || s[0] != pattern[0] {
				return false
			}
			s = s[1:]
			pattern = pattern[1:]
		default:
			if len(s) == 0 || s[0] != pattern[0] {
				return false
			}
			s = s[1:]
			pattern = pattern[1:]
		}
	}
	return len(s) == 0
}

func matchLiteral(pattern, s []rune) bool {
	if len(s) == 0 || len(pattern) == 0 || s[0] != pattern[0] {
		return false
	}
	return matchGlob(pattern[1:], s[1:])
}

func indexRune(rs []rune, target rune) int {
	for i, r := range rs {
		if r == target {
			return i
		}
	}
	return -1
}

func classMatches(class []rune, c rune) bool {
	for i := 0; i < len(class); i++ {
		if i+2 < len(class) && class[i+1] == '-' {
			lo, hi := class[i], class[i+2]
			if lo > hi {
				lo, hi = hi, lo
			}
			if c >= lo && c <= hi {
				return true
			}
			i += 2
			continue
		}
		if class[i] == c {
			return true
		}
	}
	return false
}
