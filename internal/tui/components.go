package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/brief/internal/results"
)

// renderHeader returns a consistently styled header with an optional muted subtitle.
func renderHeader(title, subtitle string, width int) string {
	title = truncateEnd(title, width-2)
	subtitle = truncateEnd(subtitle, width-2)
	rows := []string{HeaderStyle.Render(title)}
	if subtitle != "" {
		rows = append(rows, renderMuted(subtitle))
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

// renderInputFrame draws a rounded bordered container around a rendered input view.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

func renderHelp(text string) string {
	return HelpStyle.Render(text)
}

// itemMeta is the "company • category • date" byline of a card.
func itemMeta(item results.Item) string {
	var parts []string
	if item.CompanyName != "" {
		parts = append(parts, CompanyStyle.Render(item.CompanyName))
	}
	if item.Category != "" {
		parts = append(parts, renderMuted(item.Category))
	}
	if !item.Published.IsZero() {
		parts = append(parts, TimeStyle.Render(item.Published.Format("Jan 2, 15:04")))
	}
	return strings.Join(parts, renderMuted(" • "))
}

// renderCard draws one result of the body list.
func renderCard(item results.Item, width, summaryLen int, selected bool) string {
	inner := width - 4
	if inner < 10 {
		inner = 10
	}

	rows := []string{CardTitleStyle.Render(truncateEnd(item.Title, inner))}
	if meta := itemMeta(item); meta != "" {
		rows = append(rows, meta)
	}
	if item.Summary != "" {
		rows = append(rows, lipgloss.NewStyle().
			Foreground(TextColor).
			Width(inner).
			Render(truncateEnd(collapseSpace(item.Summary), summaryLen)))
	}

	footer := fmt.Sprintf("%d views", item.ViewCount)
	if item.HasImage() {
		footer += " • image"
	}
	if item.URL != "" {
		footer += " • " + truncateMiddle(item.URL, inner-lipgloss.Width(footer)-3)
	}
	rows = append(rows, renderMuted(footer))

	style := CardStyle
	if selected {
		style = SelectedCardStyle
	}
	return style.Width(width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderHotCard draws one entry of the hot topics panel.
func renderHotCard(item results.Item, width int) string {
	inner := width - 2
	if inner < 10 {
		inner = 10
	}
	rows := []string{
		CardTitleStyle.Render(truncateEnd(item.Title, inner)),
		renderMuted(truncateMiddle(item.FirstImage(), inner)),
		HotTitleStyle.Render(fmt.Sprintf("%d views", item.ViewCount)),
	}
	if item.CompanyName != "" {
		rows = append(rows, CompanyStyle.Render(truncateEnd(item.CompanyName, inner)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderHotPanel renders up to limit hot topics under a panel title.
func renderHotPanel(items []results.Item, limit, width int) string {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	rows := []string{HotTitleStyle.Render("Hot topics"), ""}
	for _, item := range items {
		rows = append(rows, renderHotCard(item, width-2), "")
	}
	return HotPanelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
