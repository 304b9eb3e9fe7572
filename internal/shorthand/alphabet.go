package shorthand

// Display alphabets. Feeds use only home-row characters so a feed's
// shorthand is cheap to type; posts draw from a larger alphabet ordered by
// typing comfort.
var (
	homeRow = []rune("asdfghjkl")

	postAlphabet = []rune("asdfghjklASDFGHJKLqwertyiopzxcvbnm")
)

// hexToHomeRow re-encodes a hex id in base-9 over the home-row alphabet.
// Deterministic per id, so two machines render the same feed shorthand.
func hexToHomeRow(hex string) string {
	base := len(homeRow)
	if hex == "" {
		return string(homeRow[0])
	}

	digits := make([]int, 0, len(hex))
	for _, c := range hex {
		digits = append(digits, hexDigit(c))
	}

	var remainders []int
	for {
		rem := 0
		quotient := make([]int, 0, len(digits))
		for _, d := range digits {
			cur := rem*16 + d
			quotient = append(quotient, cur/base)
			rem = cur % base
		}
		remainders = append(remainders, rem)
		digits = trimLeadingZeros(quotient)
		if len(digits) == 0 {
			break
		}
	}

	out := make([]rune, len(remainders))
	for i, r := range remainders {
		out[len(remainders)-1-i] = homeRow[r]
	}
	return string(out)
}

func hexDigit(c rune) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return 0
	}
}

func trimLeadingZeros(digits []int) []int {
	i := 0
	for i < len(digits) && digits[i] == 0 {
		i++
	}
	out := make([]int, len(digits)-i)
	copy(out, digits[i:])
	return out
}

// FeedShorthands derives a display shorthand per feed id: the home-row
// encoding of each id, cut to the shortest prefix length that keeps all of
// them distinct. Input order is preserved.
func FeedShorthands(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	full := make([]string, len(ids))
	maxLen := 1
	for i, id := range ids {
		full[i] = hexToHomeRow(id)
		if len(full[i]) > maxLen {
			maxLen = len(full[i])
		}
	}
	if len(full) == 1 {
		return []string{full[0][:1]}
	}

	for n := 1; n <= maxLen; n++ {
		prefixes := make([]string, len(full))
		seen := make(map[string]bool, len(full))
		unique := true
		for i, s := range full {
			p := s
			if len(p) > n {
				p = p[:n]
			}
			prefixes[i] = p
			if seen[p] {
				unique = false
				break
			}
			seen[p] = true
		}
		if unique {
			return prefixes
		}
	}
	return full
}

// PostShorthand encodes a display position as a string over the post
// alphabet: position 0 is "a", position 34 is "sa". Stable only for a given
// display order, which is the point: the freshest post is always "a".
func PostShorthand(n int) string {
	base := len(postAlphabet)
	if n <= 0 {
		return string(postAlphabet[0])
	}
	var out []rune
	for n > 0 {
		out = append(out, postAlphabet[n%base])
		n /= base
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}
