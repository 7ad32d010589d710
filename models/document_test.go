package models

import "testing"

func TestDocumentIDStripsPrefix(t *testing.T) {
	a := DocumentID("corpus/a.pdf", "corpus/")
	b := DocumentID("archive/a.pdf", "archive/")
	if a != b {
		t.Error("moving the corpus between prefixes must not re-key documents")
	}
	if len(a) != 16 {
		t.Errorf("want 16-char id, got %d", len(a))
	}
	if DocumentID("a.pdf", "") == DocumentID("b.pdf", "") {
		t.Error("distinct keys must map to distinct ids")
	}
}

func TestFilenameFromKey(t *testing.T) {
	cases := map[string]string{
		"docs/sub/report.pdf": "report.pdf",
		"report.pdf":          "report.pdf",
		"docs/":               "",
	}
	for key, want := range cases {
		if got := FilenameFromKey(key); got != want {
			t.Errorf("FilenameFromKey(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestChunkPointIDDeterministic(t *testing.T) {
	c := Chunk{DocumentID: "abc123", Index: 4}
	if c.PointID() != (Chunk{DocumentID: "abc123", Index: 4}).PointID() {
		t.Error("point id not stable")
	}
	if c.PointID() == (Chunk{DocumentID: "abc123", Index: 5}).PointID() {
		t.Error("different indices must map to different ids")
	}
}
