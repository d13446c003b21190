package telegram

import "strings"

// markdownV2Specials is the set Telegram requires escaping in MarkdownV2
// text outside of entities, backslash included.
const markdownV2Specials = "\\_*[]()~`>#+-=|{}.!"

var markdownV2Escaper = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(markdownV2Specials))
	for _, r := range markdownV2Specials {
		pairs = append(pairs, string(r), "\\"+string(r))
	}
	return strings.NewReplacer(pairs...)
}()

// EscapeMarkdownV2 escapes s so it renders literally with ParseMode MarkdownV2.
func EscapeMarkdownV2(s string) string {
	return markdownV2Escaper.Replace(s)
}

// Format wraps a plain-text message in the notification template.
// The header is markup; msg is escaped.
func Format(msg string) string {
	return "\n⚠️ *UPS notification* ⚠️ \\\n" + EscapeMarkdownV2(msg) + "\n"
}
