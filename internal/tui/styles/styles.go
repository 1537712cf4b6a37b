package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Accent     = lipgloss.Color("#FE2C55")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(Accent)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)
)

// Panel styles
var (
	SectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray).
			Padding(0, 1)

	SectionTitleStyle = lipgloss.NewStyle().
				Foreground(Accent).
				Bold(true)

	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(White).
				Background(SlateLight)

	NormalItemStyle = lipgloss.NewStyle().
			Foreground(LightGray)
)

// Help bar styles
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(Accent)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// Loading and filter styles
var (
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(Accent)

	FilterStyle = lipgloss.NewStyle().
			Foreground(White)

	FilterPromptStyle = lipgloss.NewStyle().
				Foreground(Accent).
				Bold(true)

	MatchHighlightStyle = lipgloss.NewStyle().
				Foreground(Accent).
				Bold(true)
)

// Badge indicators for cache provenance
var (
	CachedBadge = DimStyle.Render("cached")
	LiveBadge   = SuccessStyle.Render("live")
)
