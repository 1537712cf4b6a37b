package search

import (
	"strings"
	"unicode"

	"github.com/mmcdole/reel/internal/domain"
)

// Index holds a video list with pre-computed lowercase titles.
// Implements sahilm/fuzzy.Source.
type Index struct {
	videos      []domain.Video
	lowerTitles []string
	// offsets[i][b] is the byte in videos[i].Title where lowerTitles[i][b] came from
	offsets [][]int
}

// NewIndex builds an index over videos
func NewIndex(videos []domain.Video) *Index {
	lower := make([]string, len(videos))
	offsets := make([][]int, len(videos))
	for i, v := range videos {
		lower[i], offsets[i] = foldTitle(v.Title)
	}
	return &Index{videos: videos, lowerTitles: lower, offsets: offsets}
}

// foldTitle lowercases title rune by rune and records, for each byte of the
// result, the byte offset of the rune it came from.
func foldTitle(title string) (string, []int) {
	var b strings.Builder
	b.Grow(len(title))
	offsets := make([]int, 0, len(title))
	for i, r := range title {
		lr := unicode.ToLower(r)
		n, _ := b.WriteRune(lr)
		for range n {
			offsets = append(offsets, i)
		}
	}
	return b.String(), offsets
}

// originalOffsets maps byte offsets in lowerTitles[i] back to videos[i].Title
func (idx *Index) originalOffsets(i int, lowered []int) []int {
	if len(lowered) == 0 {
		return nil
	}
	out := make([]int, 0, len(lowered))
	for _, b := range lowered {
		if b < len(idx.offsets[i]) {
			out = append(out, idx.offsets[i][b])
		}
	}
	return out
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *Index) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of videos (implements fuzzy.Source)
func (idx *Index) Len() int { return len(idx.videos) }

// Video returns the video at index i
func (idx *Index) Video(i int) domain.Video { return idx.videos[i] }
