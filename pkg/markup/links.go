package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Segment is a run of rendered text, linked when Href is set.
type Segment struct {
	Text string
	Href string
}

// Link is an anchor found in rendered markup.
type Link struct {
	Href string
	Text string
}

// Segments tokenizes rendered markup into plain and linked text runs.
// Entities are unescaped; tags other than anchors are dropped.
func Segments(rendered string) []Segment {
	z := html.NewTokenizer(strings.NewReader(rendered))
	var segs []Segment
	href := ""
	depth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return segs
		case html.TextToken:
			text := string(z.Text())
			if text == "" {
				continue
			}
			if n := len(segs); n > 0 && segs[n-1].Href == href {
				segs[n-1].Text += text
				continue
			}
			segs = append(segs, Segment{Text: text, Href: href})
		case html.StartTagToken:
			tok := z.Token()
			if tok.Data != "a" {
				continue
			}
			depth++
			if depth == 1 {
				href = attr(tok, "href")
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) != "a" || depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				href = ""
			}
		}
	}
}

// Links returns the anchors in rendered markup, in document order.
func Links(rendered string) []Link {
	var links []Link
	for _, seg := range Segments(rendered) {
		if seg.Href != "" {
			links = append(links, Link{Href: seg.Href, Text: seg.Text})
		}
	}
	return links
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
