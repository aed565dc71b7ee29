package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mauv0809/valuedash/internal/valuation"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Width(22)

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Align(lipgloss.Right).
			Width(16)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))
)

func row(label string, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
}

// renderAnalysis lays out an analysis for the terminal.
func renderAnalysis(title string, a valuation.Analysis, assumptions valuation.Assumptions) string {
	metrics := strings.Join([]string{
		row("Average income", fmt.Sprintf("%.2f", a.AverageIncome)),
		row("Debt / assets", fmt.Sprintf("%.4f", a.DebtToEquity)),
		row("Book value / share", fmt.Sprintf("%.4f", a.BookValuePerShare)),
		row("Income CAGR", fmt.Sprintf("%.2f%%", a.CAGR*100)),
	}, "\n")
	if a.Trend != nil {
		metrics += "\n" + strings.Join([]string{
			row("Fitted growth", fmt.Sprintf("%.2f%%", a.Trend.Growth*100)),
			row("Fitted income", fmt.Sprintf("%.2f", a.Trend.Predicted)),
		}, "\n")
	}

	band := strings.Join([]string{
		row("Growth", fmt.Sprintf("%.2f%% over %dy", assumptions.GrowthRate*100, assumptions.Years)),
		row("Safety margin", fmt.Sprintf("%.0f%%", assumptions.SafetyMargin*100)),
		row("Lower", fmt.Sprintf("%.4f", a.Lower)),
		row("Target", fmt.Sprintf("%.4f", a.Target)),
		row("Upper", fmt.Sprintf("%.4f", a.Upper)),
		row("Nominal lower", fmt.Sprintf("%.4f", a.NominalLower)),
		row("Nominal target", fmt.Sprintf("%.4f", a.NominalTarget)),
		row("Nominal upper", fmt.Sprintf("%.4f", a.NominalUpper)),
	}, "\n")

	parts := []string{
		titleStyle.Render(title),
		boxStyle.Render(metrics),
		boxStyle.Render(band),
	}
	for _, w := range a.Warnings {
		parts = append(parts, warningStyle.Render("! "+w.String()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}
