package knowledge

import (
	"testing"

	"github.com/mohammad-safakhou/wikiask/models"
)

func TestImagePickerPrefersFullResolutionThumbnail(t *testing.T) {
	p := ImagePicker{Excluded: DefaultExcludedImages, Default: "default.svg"}
	page := &models.Page{
		ThumbnailURL: "https://upload.wikimedia.org/wikipedia/commons/thumb/d/d4/Earth.jpg/200px-Earth.jpg",
		ImageURLs:    []string{"https://upload.wikimedia.org/wikipedia/commons/d/d4/Earth.jpg"},
	}
	if got := p.Best(page); got != "https://upload.wikimedia.org/wikipedia/commons/d/d4/Earth.jpg" {
		t.Fatalf("unexpected image %q", got)
	}

	page.ImageURLs = nil
	if got := p.Best(page); got != page.ThumbnailURL {
		t.Fatalf("expected thumbnail when full resolution is not listed, got %q", got)
	}
}

func TestImagePickerSkipsExcluded(t *testing.T) {
	p := ImagePicker{Excluded: DefaultExcludedImages, Default: "default.svg"}
	page := &models.Page{ImageURLs: []string{
		"https://upload.wikimedia.org/wikipedia/commons/7/73/Blue_pencil.svg",
		"https://upload.wikimedia.org/wikipedia/commons/a/aa/Cat.jpg",
	}}
	if got := p.Best(page); got != "https://upload.wikimedia.org/wikipedia/commons/a/aa/Cat.jpg" {
		t.Fatalf("unexpected image %q", got)
	}

	page.ImageURLs = page.ImageURLs[:1]
	if got := p.Best(page); got != "default.svg" {
		t.Fatalf("expected default image, got %q", got)
	}
	if got := p.Best(nil); got != "default.svg" {
		t.Fatalf("expected default image for nil page, got %q", got)
	}
}
