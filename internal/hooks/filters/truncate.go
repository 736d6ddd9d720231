package filters

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// XTruncate cuts markup to at most length runes, appends trail and repairs
// the result into well-formed HTML so no tag is left open.
func XTruncate(in, param any, trail string) (any, error) {
	length, err := asInt(param, DefaultTruncate)
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, fmt.Errorf("negative length %d", length)
	}
	s := fmt.Sprint(in)
	runes := []rune(s)
	if len(runes) <= length {
		return repair(s)
	}
	return repair(string(runes[:length]) + trail)
}

func repair(fragment string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
