package scraper

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/portstat/gs108e-agent/pkg/types"
)

// portRowClass is the class attribute marking a counter row in
// port_statistics.htm.
const portRowClass = "portID"

// countersPerRow is the number of hex <input> values each row carries:
// received bytes, sent bytes, CRC error packets.
const countersPerRow = 3

// PortRow is one parsed row of the port statistics table.
type PortRow struct {
	Port     int
	Counters types.PortCounters
}

// Extract parses a port_statistics.htm document and returns one PortRow per
// port, in document order.
//
// Each row is a <tr class="portID"> whose first <td> holds the decimal port
// number and whose first three <input> elements hold the counters in
// hexadecimal in their value attribute. Any deviation from that shape, a
// malformed number or a repeated port number is returned as *types.ParseError
// and no rows are returned. A document without any counter row is an error
// too: the switch serves its login page there when the session is not valid.
func Extract(r io.Reader) ([]PortRow, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, &types.ParseError{Row: -1, Err: fmt.Errorf("html: %w", err)}
	}

	trs := findAll(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Tr && hasClass(n, portRowClass)
	})
	if len(trs) == 0 {
		return nil, &types.ParseError{Row: -1, Err: errors.New("no port counter rows found")}
	}

	rows := make([]PortRow, 0, len(trs))
	seen := make(map[int]bool, len(trs))
	for i, tr := range trs {
		row, err := parseRow(tr)
		if err != nil {
			return nil, &types.ParseError{Row: i, Err: err}
		}
		if seen[row.Port] {
			return nil, &types.ParseError{Row: i, Err: fmt.Errorf("duplicate port %d", row.Port)}
		}
		seen[row.Port] = true
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(tr *html.Node) (PortRow, error) {
	td := findFirst(tr, func(n *html.Node) bool { return n.DataAtom == atom.Td })
	if td == nil {
		return PortRow{}, errors.New("no <td> cell")
	}
	text := strings.TrimSpace(textContent(td))
	port, err := strconv.Atoi(text)
	if err != nil {
		return PortRow{}, fmt.Errorf("port number %q: %w", text, err)
	}
	if port <= 0 {
		return PortRow{}, fmt.Errorf("port number %d is not positive", port)
	}

	inputs := findAll(tr, func(n *html.Node) bool { return n.DataAtom == atom.Input })
	if len(inputs) < countersPerRow {
		return PortRow{}, fmt.Errorf("port %d: got %d <input> values, want %d", port, len(inputs), countersPerRow)
	}

	var vals [countersPerRow]uint64
	for i := range vals {
		raw, ok := attr(inputs[i], "value")
		if !ok {
			return PortRow{}, fmt.Errorf("port %d: <input> %d has no value attribute", port, i)
		}
		v, err := parseHex(raw)
		if err != nil {
			return PortRow{}, fmt.Errorf("port %d: counter %d: %w", port, i, err)
		}
		vals[i] = v
	}

	return PortRow{
		Port: port,
		Counters: types.PortCounters{
			Received: vals[0],
			Sent:     vals[1],
			Errors:   vals[2],
		},
	}, nil
}

// parseHex parses a base-16 counter, with or without a 0x prefix.
func parseHex(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("hex value %q: %w", s, err)
	}
	return v, nil
}

// findAll returns every descendant of n matching match, in document order.
func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// findFirst returns the first descendant of n matching match, or nil.
func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
