package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Mohsinsiddi/assetcli/internal/feed"
)

// Color palette.
var (
	ColorSuccess   = lipgloss.Color("#00D26A") // confirmed
	ColorWarning   = lipgloss.Color("#FFB800")
	ColorError     = lipgloss.Color("#FF4444") // danger
	ColorInfo      = lipgloss.Color("#4CC9F0")
	ColorAddress   = lipgloss.Color("#00B4D8") // addresses, hashes
	ColorValue     = lipgloss.Color("#FFFFFF")
	ColorMeta      = lipgloss.Color("#555555") // timestamps, metadata
	ColorBorder    = lipgloss.Color("#1E3A5F")
	ColorChain     = lipgloss.Color("#9B5DE5") // network, titles
	ColorHighlight = lipgloss.Color("#F15BB5") // selected rows
)

// Base styles.
var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleChain   = lipgloss.NewStyle().Foreground(ColorChain).Bold(true)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true).
			Underline(true)

	StyleSelected = lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorChain).
			Bold(true).
			MarginBottom(1)

	StyleTab = lipgloss.NewStyle().
			Foreground(ColorMeta).
			Padding(0, 2)

	StyleTabActive = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true).
			Underline(true).
			Padding(0, 2)

	StyleDim = lipgloss.NewStyle().Foreground(ColorMeta)
)

// Banner returns the assetcli heading.
func Banner() string {
	title := StyleChain.Render("◆ assetcli")
	tagline := StyleMeta.Render("  physical asset tokenization · Sepolia")
	return title + tagline + "\n"
}

// Success formats a success message.
func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }

// Warn formats a warning message.
func Warn(msg string) string { return StyleWarning.Render("⚠ " + msg) }

// Err formats an error message.
func Err(msg string) string { return StyleError.Render("✗ " + msg) }

// Info formats an informational message.
func Info(msg string) string { return StyleInfo.Render("ℹ " + msg) }

// Hint formats a suggestion for what to run next.
func Hint(msg string) string { return StyleMeta.Render("→ " + msg) }

// Addr formats an address.
func Addr(a string) string { return StyleAddress.Render(a) }

// Val formats a value.
func Val(v string) string { return StyleValue.Render(v) }

// Meta formats metadata text.
func Meta(m string) string { return StyleMeta.Render(m) }

// ChainName formats a network name.
func ChainName(c string) string { return StyleChain.Render(c) }

// Notice renders a notification with its level's color and icon.
func Notice(level feed.Level, msg string) string {
	switch level {
	case feed.LevelSuccess:
		return Success(msg)
	case feed.LevelWarning:
		return Warn(msg)
	case feed.LevelDanger:
		return Err(msg)
	default:
		return Info(msg)
	}
}

// TruncateAddr shortens an address for display: 0x1234…5678.
func TruncateAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

// padR pads s to visible width n.
func padR(s string, n int) string {
	w := lipgloss.Width(s)
	if w >= n {
		return s
	}
	return s + strings.Repeat(" ", n-w)
}

// section renders a "── Title (n) ─────" divider of the given width.
func section(title string, width int) string {
	hdr := "  ── " + title + " "
	fill := width - lipgloss.Width(hdr)
	if fill < 0 {
		fill = 0
	}
	return StyleHeader.Render(hdr) + StyleMeta.Render(strings.Repeat("─", fill))
}
