package browser

import (
	"fmt"
	"strings"
)

type LocatorKind string

const (
	KindCSS   LocatorKind = "css"
	KindXPath LocatorKind = "xpath"
)

// Locator описывает один способ найти элемент на странице.
type Locator struct {
	Kind LocatorKind `yaml:"kind"`
	Expr string      `yaml:"expr"`
}

func CSS(expr string) Locator {
	return Locator{Kind: KindCSS, Expr: expr}
}

func XPath(expr string) Locator {
	return Locator{Kind: KindXPath, Expr: expr}
}

func (l Locator) String() string {
	return fmt.Sprintf("%s(%s)", l.Kind, l.Expr)
}

func (l Locator) Validate() error {
	if strings.TrimSpace(l.Expr) == "" {
		return fmt.Errorf("locator expr is empty")
	}
	switch l.Kind {
	case KindCSS, KindXPath:
		return nil
	default:
		return fmt.Errorf("unsupported locator kind: %q", l.Kind)
	}
}

// XPathLiteral заключает строку в кавычки для XPath 1.0.
// Если встречаются оба вида кавычек, собирает concat().
func XPathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	var b strings.Builder
	b.WriteString("concat(")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(`, "'", `)
		}
		b.WriteString("'" + part + "'")
	}
	b.WriteString(")")
	return b.String()
}
