package preset

import (
	"context"
	"testing"

	"github.com/wudi/docprep/raster"
)

func TestNamesStableOrder(t *testing.T) {
	want := []Name{
		Default,
		ForFadedDocument,
		ForPoorQualityForm,
		ForDotMatrixPrint,
		ForAgedDocument,
		ForGridBackground,
		ForWatermarkedDocument,
	}
	got := Names()
	if len(got) != len(want) {
		t.Fatalf("len(Names()) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEveryPresetBuildsAndRuns(t *testing.T) {
	img, err := raster.New(100, 100, raster.Gray8)
	if err != nil {
		t.Fatalf("raster.New() error = %v", err)
	}
	for y := 0; y < 100; y++ {
		row := img.Row(y)
		for x := range row {
			row[x] = 220
		}
	}
	for x := 20; x < 80; x++ {
		img.Row(50)[x] = 30
	}

	for _, name := range Names() {
		t.Run(string(name), func(t *testing.T) {
			p, err := Build(name)
			if err != nil {
				t.Fatalf("Build(%q) error = %v", name, err)
			}
			out, err := p.Preprocess(context.Background(), img)
			if err != nil {
				t.Fatalf("Preprocess() error = %v", err)
			}
			if out.Width != img.Width || out.Height != img.Height {
				t.Fatalf("dimensions = %dx%d, want %dx%d", out.Width, out.Height, img.Width, img.Height)
			}
		})
	}
}

func TestBuildUnknownName(t *testing.T) {
	if _, err := Build(Name("sepia-dreams")); err == nil {
		t.Fatal("Build() with unknown name succeeded")
	}
}

func TestValid(t *testing.T) {
	if !Valid(ForAgedDocument) {
		t.Fatalf("Valid(%q) = false", ForAgedDocument)
	}
	if Valid(Name("nope")) {
		t.Fatal(`Valid("nope") = true`)
	}
}

func TestBuildReturnsFreshPipelines(t *testing.T) {
	a, err := Build(Default)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	b, err := Build(Default)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if a == b {
		t.Fatal("Build() returned a shared pipeline")
	}
	sa, sb := a.Stages(), b.Stages()
	if len(sa) == 0 || len(sa) != len(sb) {
		t.Fatalf("stage counts: %d vs %d", len(sa), len(sb))
	}
	for i := range sa {
		if sa[i] == sb[i] {
			t.Fatalf("stage %d shared between pipelines", i)
		}
	}
}
