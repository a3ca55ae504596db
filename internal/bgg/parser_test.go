package bgg

import (
	"reflect"
	"testing"
)

func TestParseCollectionExtractsItems(t *testing.T) {
	doc := `<?xml version="1.0" encoding="utf-8"?>
<items totalitems="2" termsofuse="https://boardgamegeek.com/xmlapi/termsofuse">
	<item objecttype="thing" objectid="5867" subtype="boardgame" collid="1">
		<name sortindex="1">Alhambra</name>
		<status own="1" prevowned="0" fortrade="0" want="0" lastmodified="2024-11-02 10:15:00"/>
		<numplays>1</numplays>
	</item>
	<item objecttype="thing" objectid="7866" subtype="boardgame" collid="2">
		<name sortindex="1">Ticket to Ride</name>
		<status own="1" prevowned="0"/>
		<numplays>0</numplays>
	</item>
</items>`

	items := ParseCollection([]byte(doc))
	want := []Item{
		{ObjectID: "5867", Name: "Alhambra", Owned: true, NumPlays: 1},
		{ObjectID: "7866", Name: "Ticket to Ride", Owned: true, NumPlays: 0},
	}
	if !reflect.DeepEqual(items, want) {
		t.Fatalf("parsed items mismatch:\ngot  %+v\nwant %+v", items, want)
	}
}

func TestParseCollectionSkipsMalformedFragments(t *testing.T) {
	// 3 well-formed and 2 malformed fragments interleaved. The malformed
	// ones miss a required field (object id, ownership flag) or contain
	// broken markup; the well-formed ones must survive in order.
	doc := `<items>
	<item objectid="100"><name>First</name><status own="1"/></item>
	<item><name>No object id</name><status own="1"/></item>
	<item objectid="200"><name>Second</name><status own="0" prevowned="1"/></item>
	<item objectid="999"><name>Broken </wrong> markup</name><status own="1"/></item>
	<item objectid="300"><name>Third</name><status own="1"/><numplays>12</numplays></item>
</items>`

	items := ParseCollection([]byte(doc))
	if len(items) != 3 {
		t.Fatalf("expected exactly 3 items, got %d: %+v", len(items), items)
	}
	gotIDs := []string{items[0].ObjectID, items[1].ObjectID, items[2].ObjectID}
	wantIDs := []string{"100", "200", "300"}
	if !reflect.DeepEqual(gotIDs, wantIDs) {
		t.Fatalf("expected document order %v, got %v", wantIDs, gotIDs)
	}
	if !items[1].PrevOwned || items[1].Owned {
		t.Fatalf("expected item 200 prevowned and not owned, got %+v", items[1])
	}
	if items[2].NumPlays != 12 {
		t.Fatalf("expected item 300 numplays 12, got %d", items[2].NumPlays)
	}
}

func TestParseCollectionRequiresOwnershipFlag(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want int
	}{
		{
			name: "no status element",
			doc:  `<items><item objectid="1"><name>A</name></item></items>`,
			want: 0,
		},
		{
			name: "status without own attribute",
			doc:  `<items><item objectid="1"><status fortrade="0"/></item></items>`,
			want: 0,
		},
		{
			name: "own present",
			doc:  `<items><item objectid="1"><status own="0"/></item></items>`,
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := ParseCollection([]byte(tt.doc))
			if len(items) != tt.want {
				t.Fatalf("expected %d items, got %d: %+v", tt.want, len(items), items)
			}
		})
	}
}

func TestParseCollectionOptionalFieldDefaults(t *testing.T) {
	doc := `<items><item objectid="42"><status own="1"/></item></items>`

	items := ParseCollection([]byte(doc))
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.Name != "" || item.PrevOwned || item.NumPlays != 0 {
		t.Fatalf("expected empty defaults, got %+v", item)
	}
}

func TestParseCollectionNegativePlaysClampedToZero(t *testing.T) {
	doc := `<items><item objectid="42"><status own="1"/><numplays>-3</numplays></item></items>`

	items := ParseCollection([]byte(doc))
	if len(items) != 1 || items[0].NumPlays != 0 {
		t.Fatalf("expected numplays 0, got %+v", items)
	}
}

func TestParseCollectionPreservesDuplicates(t *testing.T) {
	doc := `<items>
	<item objectid="7"><status own="0"/></item>
	<item objectid="7"><status own="1"/></item>
</items>`

	items := ParseCollection([]byte(doc))
	if len(items) != 2 {
		t.Fatalf("expected duplicates preserved as 2 entries, got %d", len(items))
	}
	if items[0].Owned || !items[1].Owned {
		t.Fatalf("expected document order preserved, got %+v", items)
	}
}

func TestParseCollectionTruncatedDocument(t *testing.T) {
	doc := `<items>
	<item objectid="1"><status own="1"/></item>
	<item objectid="2"><status own="1"/>`

	items := ParseCollection([]byte(doc))
	if len(items) != 1 || items[0].ObjectID != "1" {
		t.Fatalf("expected only the complete item, got %+v", items)
	}
}

func TestParseCollectionEmptyAndGarbage(t *testing.T) {
	for _, doc := range []string{"", "not xml at all", `<items totalitems="0"></items>`} {
		if items := ParseCollection([]byte(doc)); len(items) != 0 {
			t.Fatalf("expected no items for %q, got %+v", doc, items)
		}
	}
}
