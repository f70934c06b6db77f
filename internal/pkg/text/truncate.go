package text

const shortTitleLen = 85

func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max > len(s) {
		max = len(s)
	}
	return s[:max] + "..."
}

// ShortTitle truncates a market title to the dashboard display width.
func ShortTitle(title string) string {
	if title == "" {
		return "-"
	}
	return Truncate(title, shortTitleLen)
}
