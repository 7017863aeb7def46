// Package similarity computes normalized edit distance between answer
// strings. Gap detection uses it to cluster repeated wrong answers.
package similarity

// Ratio returns 1 - levenshtein(a,b)/max(len(a), len(b), 1), a value in
// [0,1] where 1 means identical. Comparison is case-sensitive and
// byte-level; callers should lowercase/trim first for stable behavior.
func Ratio(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		longest = 1
	}
	return 1 - float64(distance(a, b))/float64(longest)
}

// distance is the classic two-row Levenshtein.
func distance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
