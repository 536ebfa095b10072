package knowledge

import (
	"github.com/mohammad-safakhou/wikiask/internal/helpers"
	"github.com/mohammad-safakhou/wikiask/models"
)

// DefaultExcludedImages are decorations MediaWiki attaches to most pages.
var DefaultExcludedImages = []string{
	"Blue_pencil.svg",
	"OOjs_UI_icon_edit-ltr-progressive.svg",
}

// ImagePicker chooses the picture shown next to an article.
type ImagePicker struct {
	Excluded []string
	Default  string
}

// Best prefers the page thumbnail, upgraded to the full resolution file when
// the page lists it, then the first image that is not excluded, then the
// default image.
func (p ImagePicker) Best(page *models.Page) string {
	if page == nil {
		return p.Default
	}
	if page.ThumbnailURL != "" {
		full := helpers.FullResolutionURL(page.ThumbnailURL)
		for _, img := range page.ImageURLs {
			if img == full {
				return full
			}
		}
		return page.ThumbnailURL
	}
	excluded := make(map[string]struct{}, len(p.Excluded))
	for _, name := range p.Excluded {
		excluded[name] = struct{}{}
	}
	for _, img := range page.ImageURLs {
		if _, skip := excluded[helpers.FileName(img)]; skip {
			continue
		}
		return img
	}
	return p.Default
}
