package drive

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolvePath(t *testing.T) {
	for _, c := range []struct {
		path, id, want string
	}{
		{"/docs/", "F2", "/docs/F2"},
		{"/docs", "F2", "/docs/F2"},
		{"docs", "F2", "/docs/F2"},
		{"/", "F2", "/F2"},
		{"", "F2", "/F2"},
		{"/a/b/", "c", "/a/b/c"},
	} {
		if got := ResolvePath(c.path, c.id); got != c.want {
			t.Errorf("ResolvePath(%q, %q): got %q, want %q", c.path, c.id, got, c.want)
		}
	}
}

func TestSplit(t *testing.T) {
	parent, id := Split("/a/b")
	if parent != "/a" || id != "b" {
		t.Errorf("got (%q, %q), want (/a, b)", parent, id)
	}
	parent, id = Split("/a")
	if parent != "/" || id != "a" {
		t.Errorf("got (%q, %q), want (/, a)", parent, id)
	}
	parent, id = Split("/")
	if parent != "" || id != "" {
		t.Errorf("got (%q, %q) for the root", parent, id)
	}
}

func TestNewIDIsPayloadSafe(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if !ValidID(id) {
			t.Fatalf("invalid id %q", id)
		}
		if strings.Contains(id, "_") {
			t.Fatalf("id %q contains an underscore", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestFoldersFiltersFiles(t *testing.T) {
	items := map[string]Item{
		"A": {ID: "A", Kind: KindFolder, Name: "Project X", Path: "/"},
		"B": {ID: "B", Kind: KindFile, Name: "proj.txt", Path: "/"},
		"C": {ID: "C", Kind: KindFolder, Name: "Archive", Path: "/A"},
	}
	got := Folders(items)
	want := []Candidate{
		{ID: "C", Name: "Archive", Path: "/A"},
		{ID: "A", Name: "Project X", Path: "/"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestMatches(t *testing.T) {
	it := Item{ID: "A", Name: "Project X", Path: "/root1"}
	if !Matches(it, "proj") {
		t.Error("expected case-insensitive name match")
	}
	if !Matches(it, "ROOT1") {
		t.Error("expected path match")
	}
	if Matches(it, "   ") {
		t.Error("blank query must not match")
	}
	if Matches(it, "zzz") {
		t.Error("unexpected match")
	}
}

func TestSortTree(t *testing.T) {
	items := []Item{
		{ID: "c", Name: "c", Path: "/a/b"},
		{ID: "b", Name: "b", Path: "/a"},
		{ID: "a", Name: "a", Path: "/"},
	}
	SortTree(items)
	var got []string
	for _, it := range items {
		got = append(got, it.ID)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}
