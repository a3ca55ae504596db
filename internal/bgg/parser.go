package bgg

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// Item is one normalized entry extracted from a BGG collection document.
type Item struct {
	ObjectID  string
	Name      string
	Owned     bool
	PrevOwned bool
	NumPlays  int
}

// xmlItem mirrors the subset of a BGG <item> fragment we care about.
// Status is a pointer so a fragment with no <status> element at all can be
// told apart from own="0".
type xmlItem struct {
	ObjectID string     `xml:"objectid,attr"`
	Name     string     `xml:"name"`
	Status   *xmlStatus `xml:"status"`
	NumPlays string     `xml:"numplays"`
}

type xmlStatus struct {
	Own       string `xml:"own,attr"`
	PrevOwned string `xml:"prevowned,attr"`
}

// ParseCollection extracts items from a raw BGG collection document.
//
// The document is not under our control and individual fragments are not
// guaranteed to be well formed, so each <item> fragment is decoded on its
// own: a broken fragment is dropped and extraction continues with the next
// one. Output preserves document order, and duplicate object ids are kept
// as separate entries for downstream last-wins merging.
func ParseCollection(body []byte) []Item {
	doc := string(body)
	var items []Item

	for {
		frag, afterOpen, afterClose, ok := nextFragment(doc)
		if !ok {
			break
		}

		item, parsed := parseFragment(frag)
		if !parsed {
			// Re-scan just past the broken opening tag so a well-formed
			// item inside the same chunk is still recovered.
			doc = afterOpen
			continue
		}
		items = append(items, item)
		doc = afterClose
	}

	return items
}

// nextFragment finds the next <item ...>...</item> span. afterOpen resumes
// just past the opening tag, afterClose just past the closing tag. An
// opening tag without any later close ends extraction.
func nextFragment(doc string) (frag, afterOpen, afterClose string, ok bool) {
	for {
		start := strings.Index(doc, "<item")
		if start < 0 {
			return "", "", "", false
		}
		// Reject prefixes like <items> or <itemdata>.
		after := doc[start+len("<item"):]
		if after == "" {
			return "", "", "", false
		}
		if c := after[0]; c != ' ' && c != '\t' && c != '\n' && c != '>' && c != '/' {
			doc = after
			continue
		}
		end := strings.Index(after, "</item>")
		if end < 0 {
			return "", "", "", false
		}
		closeEnd := start + len("<item") + end + len("</item>")
		return doc[start:closeEnd], after, doc[closeEnd:], true
	}
}

// parseFragment decodes a single fragment. Fragments missing the object id
// or the ownership flag are discarded.
func parseFragment(frag string) (Item, bool) {
	var raw xmlItem
	if err := xml.Unmarshal([]byte(frag), &raw); err != nil {
		return Item{}, false
	}
	if strings.TrimSpace(raw.ObjectID) == "" {
		return Item{}, false
	}
	if raw.Status == nil || strings.TrimSpace(raw.Status.Own) == "" {
		return Item{}, false
	}

	plays, err := strconv.Atoi(strings.TrimSpace(raw.NumPlays))
	if err != nil || plays < 0 {
		plays = 0
	}

	return Item{
		ObjectID:  strings.TrimSpace(raw.ObjectID),
		Name:      strings.TrimSpace(raw.Name),
		Owned:     raw.Status.Own == "1",
		PrevOwned: raw.Status.PrevOwned == "1",
		NumPlays:  plays,
	}, true
}
