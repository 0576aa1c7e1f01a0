package mutperiod

// IsPurine reports whether s is a single purine base.
func IsPurine(s string) bool {
	return s == "A" || s == "G"
}

// isDNA reports whether s is a non-empty string over the four DNA bases.
func isDNA(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return false
		}
	}
	return true
}
