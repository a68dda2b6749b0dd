package domain

import "strconv"

// FormatMoney renders an amount in Colombian pesos with dot thousands
// separators, matching how amounts are shown to participants.
func FormatMoney(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i := 0; i < len(s); i++ {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, s[i])
	}
	return string(out)
}
