package gallery

// Admit returns how many of the requested files a gallery can still accept.
// Live size is persisted assets plus pending uploads that have not
// terminated; the result is clamped to [0, requested]. Callers truncate
// the batch and surface a single limit-reached signal, not per-file errors.
func Admit(persisted, pendingLive, requested, maxAssets int) int {
	remaining := maxAssets - persisted - pendingLive
	if remaining < 0 {
		remaining = 0
	}
	if requested < remaining {
		return requested
	}
	return remaining
}
