package bot

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// maxMessageLen is Telegram's limit for a message text, in characters.
const maxMessageLen = 4096

// telegramTags maps HTML tags to the subset Telegram's HTML parse mode
// accepts.
var telegramTags = map[string]string{
	"b":          "b",
	"strong":     "b",
	"i":          "i",
	"em":         "i",
	"u":          "u",
	"ins":        "u",
	"s":          "s",
	"strike":     "s",
	"del":        "s",
	"code":       "code",
	"pre":        "pre",
	"blockquote": "blockquote",
}

var (
	spaceRun   = regexp.MustCompile(`[ \t\r\n]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// toTelegramHTML converts an HTML fragment from the analysis service into
// Telegram HTML. Headings become bold lines, list items become bullets and
// everything Telegram does not understand is reduced to its text.
func toTelegramHTML(fragment string) string {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))

	var open []string // telegram tags currently open
	inPre := 0
	listDepth := 0
	ordered := []int{} // item counters of open lists, 0 for <ul>

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			for i := len(open) - 1; i >= 0; i-- {
				sb.WriteString("</" + open[i] + ">")
			}
			return tidy(sb.String())

		case html.TextToken:
			text := string(z.Text())
			if inPre == 0 {
				text = spaceRun.ReplaceAllString(text, " ")
				if atLineStart(&sb) {
					text = strings.TrimLeft(text, " ")
				}
			}
			sb.WriteString(html.EscapeString(text))

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			switch tag {
			case "br":
				sb.WriteString("\n")
			case "p", "div", "section", "article", "table", "tr":
				blockBreak(&sb)
			case "h1", "h2", "h3", "h4", "h5", "h6":
				blockBreak(&sb)
				sb.WriteString("<b>")
				open = append(open, "b")
			case "ul":
				blockBreak(&sb)
				listDepth++
				ordered = append(ordered, 0)
			case "ol":
				blockBreak(&sb)
				listDepth++
				ordered = append(ordered, 1)
			case "li":
				lineBreak(&sb)
				sb.WriteString(strings.Repeat("  ", max(listDepth-1, 0)))
				if n := len(ordered); n > 0 && ordered[n-1] > 0 {
					sb.WriteString(strconv.Itoa(ordered[n-1]) + ". ")
					ordered[n-1]++
				} else {
					sb.WriteString("• ")
				}
			case "td", "th":
				sb.WriteString(" ")
			case "a":
				href := ""
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = z.TagAttr()
					if string(key) == "href" {
						href = string(val)
					}
				}
				if href != "" && tt == html.StartTagToken {
					sb.WriteString(`<a href="` + html.EscapeString(href) + `">`)
					open = append(open, "a")
				}
			default:
				if tg, ok := telegramTags[tag]; ok && tt == html.StartTagToken {
					if tg == "pre" {
						inPre++
					}
					sb.WriteString("<" + tg + ">")
					open = append(open, tg)
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch tag {
			case "p", "div", "section", "article", "table", "tr":
				blockBreak(&sb)
			case "h1", "h2", "h3", "h4", "h5", "h6":
				closeTag(&sb, &open, "b")
				sb.WriteString("\n")
			case "ul", "ol":
				if listDepth > 0 {
					listDepth--
					ordered = ordered[:len(ordered)-1]
				}
				blockBreak(&sb)
			case "a":
				closeTag(&sb, &open, "a")
			default:
				if tg, ok := telegramTags[tag]; ok {
					if closeTag(&sb, &open, tg) && tg == "pre" {
						inPre--
					}
				}
			}
		}
	}
}

// closeTag closes tag if it is open, along with anything opened after it.
func closeTag(sb *strings.Builder, open *[]string, tag string) bool {
	for i := len(*open) - 1; i >= 0; i-- {
		if (*open)[i] != tag {
			continue
		}
		for j := len(*open) - 1; j >= i; j-- {
			sb.WriteString("</" + (*open)[j] + ">")
		}
		*open = (*open)[:i]
		return true
	}
	return false
}

func atLineStart(sb *strings.Builder) bool {
	s := sb.String()
	return s == "" || strings.HasSuffix(s, "\n") || strings.HasSuffix(s, "• ")
}

func lineBreak(sb *strings.Builder) {
	if s := sb.String(); s != "" && !strings.HasSuffix(s, "\n") {
		sb.WriteString("\n")
	}
}

func blockBreak(sb *strings.Builder) {
	s := sb.String()
	if s == "" || strings.HasSuffix(s, "\n\n") {
		return
	}
	if strings.HasSuffix(s, "\n") {
		sb.WriteString("\n")
		return
	}
	sb.WriteString("\n\n")
}

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(newlineRun.ReplaceAllString(s, "\n\n"))
}

// escapeHTML escapes plain text for Telegram's HTML parse mode.
func escapeHTML(s string) string {
	return html.EscapeString(s)
}

// truncateText shortens s to at most n characters, marking the cut with an
// ellipsis.
func truncateText(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// fitMessage returns text unchanged when it fits in one message. Longer
// texts lose their markup and are cut, since a cut could fall inside a tag.
func fitMessage(text string) string {
	if utf8.RuneCountInString(text) <= maxMessageLen {
		return text
	}
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(text))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return escapeHTML(truncateText(sb.String(), maxMessageLen/2))
		case html.TextToken:
			sb.Write(z.Text())
		}
	}
}
