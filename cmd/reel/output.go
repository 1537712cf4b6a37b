package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/profile"
	"github.com/mmcdole/reel/internal/search"
)

// printSnapshot writes a plain-text rendering of a profile screen
func printSnapshot(w io.Writer, snap profile.Snapshot) {
	p := snap.Profile.Value
	fmt.Fprintf(w, "%s%s\n", p.DisplayName(), source(snap.Profile.FromCache))
	if p.Username != "" && p.Name != "" {
		fmt.Fprintf(w, "@%s\n", p.Username)
	}
	if p.Bio != "" {
		fmt.Fprintln(w, p.Bio)
	}
	fmt.Fprintln(w)

	if snap.Followers.Err != nil {
		fmt.Fprintf(w, "Followers: unavailable (%v)\n", snap.Followers.Err)
	} else {
		f := snap.Followers.Value
		fmt.Fprintf(w, "Followers: %d  Following: %d%s\n", f.FollowersCount, f.FollowingCount, source(snap.Followers.FromCache))
	}

	if snap.Videos.Err != nil {
		fmt.Fprintf(w, "Videos: unavailable (%v)\n", snap.Videos.Err)
		return
	}
	fmt.Fprintf(w, "Videos: %d%s\n", len(snap.Videos.Value), source(snap.Videos.FromCache))
	printVideos(w, search.NewIndex(snap.Videos.Value).Filter(""))
}

func printVideos(w io.Writer, matches []search.Match) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "  (no videos)")
		return
	}
	for _, m := range matches {
		fmt.Fprintln(w, "  "+videoLine(m.Video))
	}
}

func videoLine(v domain.Video) string {
	parts := []string{
		v.ID,
		v.Title,
		v.FormattedViews() + " views",
		v.FormattedDuration(),
	}
	return strings.Join(parts, "  ")
}

func source(fromCache bool) string {
	if fromCache {
		return " (cached)"
	}
	return ""
}
