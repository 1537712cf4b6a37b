package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/search"
	"github.com/mmcdole/reel/internal/tui/styles"
)

const defaultVisibleVideos = 10

// View renders the profile screen
func (m Model) View() string {
	if m.snapshot.NeedsSignIn() {
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.ErrorStyle.Render("Not signed in."),
			styles.DimStyle.Render("Run `reel login --token <token>` and try again."),
			"",
			m.renderHelp(),
		)
	}

	sections := []string{
		m.renderProfile(),
		m.renderFollowers(),
		m.renderVideos(),
	}
	if m.filtering || m.filterInput.Value() != "" {
		sections = append(sections, m.filterInput.View())
	}
	sections = append(sections, m.renderHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderProfile() string {
	title := styles.SectionTitleStyle.Render("Profile")
	body, ok := m.sectionStatus(domain.KindProfile, m.snapshot.Profile.Err)
	if ok {
		p := m.snapshot.Profile.Value
		lines := []string{styles.TitleStyle.Render(p.DisplayName())}
		if p.Username != "" && p.Name != "" {
			lines = append(lines, styles.SubtitleStyle.Render("@"+p.Username))
		}
		if p.Bio != "" {
			lines = append(lines, p.Bio)
		}
		lines = append(lines, styles.DimStyle.Render(fmt.Sprintf("%d videos", p.VideoCount)))
		body = strings.Join(lines, "\n")
		title += " " + badge(m.snapshot.Profile.FromCache)
	}
	return m.section(title, body)
}

func (m Model) renderFollowers() string {
	title := styles.SectionTitleStyle.Render("Followers")
	body, ok := m.sectionStatus(domain.KindFollowers, m.snapshot.Followers.Err)
	if ok {
		f := m.snapshot.Followers.Value
		body = fmt.Sprintf("%s followers  %s following",
			styles.TitleStyle.Render(fmt.Sprint(f.FollowersCount)),
			styles.TitleStyle.Render(fmt.Sprint(f.FollowingCount)),
		)
		if f.IsFollowing {
			body += "  " + styles.AccentStyle.Render("you follow")
		}
		title += " " + badge(m.snapshot.Followers.FromCache)
	}
	return m.section(title, body)
}

func (m Model) renderVideos() string {
	title := styles.SectionTitleStyle.Render("Videos")
	body, ok := m.sectionStatus(domain.KindVideos, m.snapshot.Videos.Err)
	if ok {
		body = m.renderVideoList()
		title += " " + badge(m.snapshot.Videos.FromCache)
	}
	return m.section(title, body)
}

func (m Model) renderVideoList() string {
	if len(m.matches) == 0 {
		if m.filterInput.Value() != "" {
			return styles.DimStyle.Render("No matching videos")
		}
		return styles.DimStyle.Render("No videos yet")
	}

	visible := defaultVisibleVideos
	if m.height > 0 {
		// Header, followers, help and borders take roughly 14 rows
		visible = max(m.height-14, 3)
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(start+visible, len(m.matches))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, renderVideoRow(m.matches[i], i == m.cursor))
	}
	return strings.Join(lines, "\n")
}

func renderVideoRow(match search.Match, selected bool) string {
	v := match.Video
	title := highlightMatches(v.Title, match.MatchedIndexes)
	meta := styles.DimStyle.Render(fmt.Sprintf("%s views  %s", v.FormattedViews(), v.FormattedDuration()))
	row := fmt.Sprintf("%s  %s", title, meta)
	if selected {
		return styles.SelectedItemStyle.Render("> " + row)
	}
	return styles.NormalItemStyle.Render("  " + row)
}

// highlightMatches emphasizes the byte offsets of text that matched the filter
func highlightMatches(text string, indexes []int) string {
	if len(indexes) == 0 {
		return text
	}
	matched := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		matched[i] = true
	}

	var b strings.Builder
	for i, r := range text {
		if matched[i] {
			b.WriteString(styles.MatchHighlightStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sectionStatus returns placeholder text for a section that has no value yet.
// ok is true when the section's value should be rendered.
func (m Model) sectionStatus(kind domain.ResourceKind, err error) (string, bool) {
	state := m.states[kind]
	switch {
	case state == domain.StateLoading || !m.loaded:
		return m.spinner.View() + " " + styles.DimStyle.Render("Loading..."), false
	case err != nil:
		return styles.ErrorStyle.Render("Error: " + err.Error()), false
	default:
		return "", true
	}
}

func (m Model) section(title, body string) string {
	style := styles.SectionStyle
	if m.width > 4 {
		style = style.Width(m.width - 2)
	}
	return style.Render(title + "\n" + body)
}

func (m Model) renderHelp() string {
	parts := make([]string, 0, len(m.keys.ShortHelp()))
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, styles.HelpKeyStyle.Render(h.Key)+" "+styles.HelpDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

func badge(fromCache bool) string {
	if fromCache {
		return styles.CachedBadge
	}
	return styles.LiveBadge
}
