package sharing

// binom computes m-choose-k.
func binom(m, k int) int {
	if k > m-k {
		k = m - k
	}
	top, bot := 1, 1
	for i := 1; i <= k; i++ {
		top *= m + 1 - i
		bot *= i
	}
	return top / bot
}

// firstCombination returns (0, 1, ..., k-1), the lexicographically
// smallest size-k subset of {0..m-1}.
func firstCombination(k int) []int {
	c := make([]int, k)
	for i := range c {
		c[i] = i
	}
	return c
}

// nextCombination advances c to the next size-k subset of {0..m-1} in
// lexicographic order, returning false when c is already the last one.
func nextCombination(c []int, m int) bool {
	k := len(c)
	for i := k - 1; i >= 0; i-- {
		if c[i] < m-k+i {
			c[i]++
			for j := i + 1; j < k; j++ {
				c[j] = c[j-1] + 1
			}
			return true
		}
	}
	return false
}

// intersect returns the elements common to the sorted sets a and b.
func intersect(a, b []int) []int {
	var out []int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case b[j] < a[i]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

// contains reports whether the sorted set s holds v.
func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
		if x > v {
			return false
		}
	}
	return false
}

// indexOf returns the position of v in s, or -1.
func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
