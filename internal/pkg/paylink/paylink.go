// Package paylink builds payment URLs for a tag. Pure formatting, no I/O.
package paylink

import (
	"net/url"
	"strings"

	"telegram-guess-bot/internal/pkg/amount"
)

// Builder formats payment links against a configured base URL.
type Builder struct {
	base string
}

// NewBuilder creates a Builder. A trailing slash on base is tolerated.
func NewBuilder(base string) *Builder {
	return &Builder{base: strings.TrimRight(base, "/")}
}

// Build returns the payment link for a tag with no preset amount.
func (b *Builder) Build(tag string) string {
	return b.base + "/" + url.PathEscape(tag)
}

// BuildWithAmount returns the payment link for a tag with the amount preset.
func (b *Builder) BuildWithAmount(tag string, a amount.Amount) string {
	q := url.Values{}
	q.Set("amount", a.Display())
	return b.Build(tag) + "?" + q.Encode()
}
