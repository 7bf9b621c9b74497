package service

// RoundSignupCount rounds n+1 up to the next multiple of 100, so the newest signup is
// always counted and the figure shown publicly stays coarse.
func RoundSignupCount(n int64) int64 {
	if n < 0 {
		n = 0
	}
	return ((n + 1) + 99) / 100 * 100
}
