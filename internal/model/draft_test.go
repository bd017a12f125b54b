package model

import (
	"testing"
	"time"

	"github.com/debemdeboas/archive-editor/internal/util"
	"github.com/mmarkdown/mmark/v2/mast"
)

func TestDraftGetTitle(t *testing.T) {
	created := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	series := &mast.TitleData{Title: "Part one"}
	series.SeriesInfo.Name = "go"
	series.SeriesInfo.Value = "1"

	tests := []struct {
		name  string
		draft Draft
		want  string
	}{
		{"plain title", Draft{Title: "Notes"}, "Notes"},
		{"untitled", Draft{CreatedDate: created}, "Untitled - 2024-03-09"},
		{
			"front matter wins",
			Draft{Title: "file", Info: &util.ExtendedTitleData{TitleData: &mast.TitleData{Title: "Real title"}}},
			"Real title",
		},
		{"series prefix", Draft{Info: &util.ExtendedTitleData{TitleData: series}}, "[go-1] Part one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.draft.GetTitle(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDraftSetMarkup(t *testing.T) {
	d := &Draft{}
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	if !d.SetMarkup([]byte("<p>a</p>"), t1) {
		t.Fatal("Expected first markup to be a change")
	}
	if d.ContentHash != util.ContentHashString("<p>a</p>") || !d.ModifiedDate.Equal(t1) {
		t.Errorf("Expected hash and time to be set, got %q at %v", d.ContentHash, d.ModifiedDate)
	}

	if d.SetMarkup([]byte("<p>a</p>"), t2) {
		t.Error("Expected identical markup not to be a change")
	}
	if !d.ModifiedDate.Equal(t1) {
		t.Errorf("Expected modification time to stay %v, got %v", t1, d.ModifiedDate)
	}

	if !d.SetMarkup([]byte{}, t2) || d.ContentHash != util.ContentHash(nil) {
		t.Error("Expected clearing the markup to be a change")
	}
}
