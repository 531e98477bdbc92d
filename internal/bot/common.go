package bot

// maxCaptionLen is Telegram's limit for photo captions.
const maxCaptionLen = 1024

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	return s[:max] + "..."
}

// clampCaption trims generated copy that exceeds the transport's caption
// limit rather than failing the send.
func clampCaption(s string) string {
	if len(s) <= maxCaptionLen {
		return s
	}
	return s[:maxCaptionLen]
}
