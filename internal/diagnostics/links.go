package diagnostics

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var spaceRe = regexp.MustCompile(`\s+`)

// maxLinkChars: длиннее обрезаем, в логе нужен только узнаваемый текст.
const maxLinkChars = 120

// LinkTexts возвращает уникальные тексты ссылок и кнопок страницы в порядке документа.
// Нужен, чтобы по логу подобрать новые селекторы, когда портал поменяет разметку.
func LinkTexts(html string, limit int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	// Скрипты и стили не интересны
	doc.Find("script, style, noscript").Remove()

	seen := make(map[string]bool)
	var links []string
	doc.Find("a, [role='link'], button").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := CleanText(sel.Text())
		if text == "" {
			text = CleanText(sel.AttrOr("aria-label", ""))
		}
		if text == "" || seen[text] {
			return true
		}
		seen[text] = true
		links = append(links, Truncate(text, maxLinkChars))
		return limit <= 0 || len(links) < limit
	})

	return links, nil
}

// CleanText заменяет NBSP на пробел и схлопывает пробельные символы.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\u00A0", " ")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Truncate обрезает текст до maxChars рун по последнему пробелу.
func Truncate(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	truncated := string(runes[:maxChars])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 {
		return truncated[:lastSpace] + "…"
	}
	return truncated + "…"
}
