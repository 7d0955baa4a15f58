package chat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+[0-9]{8,15}$`)

// NormalizeDigits maps Arabic-Indic and Persian digits to ASCII.
func NormalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		}
		return r
	}, s)
}

// NormalizePhone strips non-digit characters and prepends "+".
func NormalizePhone(phone string) string {
	var sb strings.Builder
	for _, ch := range NormalizeDigits(phone) {
		if ch >= '0' && ch <= '9' {
			sb.WriteRune(ch)
		}
	}
	if sb.Len() == 0 {
		return ""
	}
	return "+" + sb.String()
}

// IsValidPhone checks if the input looks like a phone number (8-15 digits).
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}

// UserKey reduces a user id ("+966...", "966...@s.whatsapp.net", "966...:3@s.whatsapp.net") to its digits.
func UserKey(id string) string {
	if at := strings.IndexByte(id, '@'); at >= 0 {
		id = id[:at]
	}
	if colon := strings.IndexByte(id, ':'); colon >= 0 {
		id = id[:colon]
	}
	return strings.TrimPrefix(NormalizePhone(id), "+")
}

// GroupServer is the JID server of WhatsApp groups.
const GroupServer = "g.us"

// GroupKey is the form group ids are stored under: the full "<id>@g.us" JID.
func GroupKey(id string) string {
	id = strings.TrimSpace(NormalizeDigits(id))
	if id == "" || strings.Contains(id, "@") {
		return id
	}
	return id + "@" + GroupServer
}

// ParseChoice parses a 1-based menu choice and checks it against count.
func ParseChoice(text string, count int) (int, bool) {
	num, err := strconv.Atoi(strings.TrimSpace(NormalizeDigits(text)))
	if err != nil || num < 1 || num > count {
		return 0, false
	}
	return num, true
}

// MatchNumberToOption converts a number string to the corresponding option.
func MatchNumberToOption(text string, options []Option) (Option, bool) {
	num, ok := ParseChoice(text, len(options))
	if !ok {
		return Option{}, false
	}
	return options[num-1], true
}

// FormatNumberedOptions creates a numbered text list from options.
func FormatNumberedOptions(text string, options []Option) string {
	var sb strings.Builder
	sb.WriteString(text)
	sb.WriteString("\n\n")

	for i, opt := range options {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, opt.Text))
	}
	sb.WriteString("\n")
	sb.WriteString(MsgChooseNumber)
	return sb.String()
}

// FirstWord splits text into its first whitespace delimited token and the rest.
func FirstWord(text string) (string, string) {
	text = strings.TrimSpace(text)
	idx := strings.IndexFunc(text, func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == '\r'
	})
	if idx < 0 {
		return text, ""
	}
	return text[:idx], strings.TrimSpace(text[idx:])
}

// IsCancel reports whether text is a cancel keyword.
func IsCancel(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, kw := range CancelKeywords {
		if text == kw {
			return true
		}
	}
	return false
}
