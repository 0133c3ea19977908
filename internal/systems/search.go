package systems

import (
	"strings"

	"github.com/haryoiro/vidstream/internal/structures"
	"golang.org/x/text/cases"
)

// FilterVideos returns the videos whose title or description contains query,
// compared with Unicode case folding. An empty query returns all videos in
// their original order.
func FilterVideos(videos []structures.Video, query string) []structures.Video {
	out := make([]structures.Video, 0, len(videos))
	if query == "" {
		return append(out, videos...)
	}

	// A Caser keeps state between calls, so each search gets its own
	fold := cases.Fold()
	needle := fold.String(query)

	for _, v := range videos {
		if strings.Contains(fold.String(v.Title), needle) || strings.Contains(fold.String(v.Description), needle) {
			out = append(out, v)
		}
	}
	return out
}
