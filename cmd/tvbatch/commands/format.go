package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/tvbatch/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	heavyLine = "═══════════════════════════════════════════════════════════"
	lightLine = "───────────────────────────────────────────────────────────"
)

// PrintHeader prints a titled block header
func PrintHeader(title string) {
	fmt.Println()
	fmt.Println(heavyLine)
	fmt.Printf("  %s\n", title)
	fmt.Println(lightLine)
}

// PrintSeparator prints the closing line of a block
func PrintSeparator() {
	fmt.Println(heavyLine)
}

// PrintSuccess prints a success line
func PrintSuccess(msg string) {
	fmt.Printf("✅ %s\n", msg)
}

// PrintWarning prints a warning line
func PrintWarning(msg string) {
	fmt.Printf("⚠️  %s\n", msg)
}

// PrintError prints an error line
func PrintError(msg string) {
	fmt.Printf("❌ %s\n", msg)
}

// PrintField prints one aligned "label : value" line
func PrintField(label string, value interface{}) {
	fmt.Printf("  %-12s: %v\n", label, value)
}

// FormatDuration renders d rounded for humans
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}

// statusIcon maps a run status to its marker
func statusIcon(s contracts.RunStatus) string {
	switch s {
	case contracts.RunCompleted:
		return "✅"
	case contracts.RunCancelled:
		return "⏹"
	default:
		return "❌"
	}
}

// verdictIcon maps a verdict to its marker
func verdictIcon(v contracts.Verdict) string {
	switch v {
	case contracts.VerdictKeep:
		return "🟢"
	case contracts.VerdictDrop:
		return "🔴"
	default:
		return "⚪"
	}
}

// PrintSummary prints a finished run with its per-item table
func PrintSummary(s *contracts.RunSummary) {
	PrintHeader(fmt.Sprintf("%s Batch %s", statusIcon(s.Status), s.Status))
	PrintField("Run ID", s.RunID)
	PrintField("Source", s.Source.String())
	PrintField("Items", len(s.Items))
	PrintField("Duration", FormatDuration(s.Duration()))
	PrintField("Kept", s.Kept)
	PrintField("Dropped", fmt.Sprintf("%d (deleted %d)", s.Dropped, s.Deleted))
	PrintField("Neither", s.Neither)
	PrintField("Destination", s.Destination)
	if s.Error != "" {
		PrintField("Error", s.Error)
	}

	if len(s.Diagnostics) > 0 {
		fmt.Println(lightLine)
		fmt.Printf("  %-4s %-12s %-10s %-8s %-7s %s\n", "#", "Symbol", "PnL", "Ratio", "Verdict", "Note")
		for _, d := range s.Diagnostics {
			note := d.Error
			if d.Deleted {
				note = strings.TrimSpace("deleted " + note)
			}
			fmt.Printf("  %-4d %-12s %-10s %-8s %s %-5s %s\n",
				d.Index+1, d.Identifier, d.Primary.String(), d.Secondary.String(),
				verdictIcon(d.Verdict), d.Verdict, note)
		}
	}
	PrintSeparator()
}

// PrintRunConfig prints the effective run configuration
func PrintRunConfig(cfg contracts.RunConfig) {
	th := cfg.Thresholds()

	PrintHeader("Run Config")
	PrintField("Strategy", valueOr(cfg.StrategyName, "(current)"))
	PrintField("Timeframe", valueOr(cfg.Timeframe, "(unchanged)"))
	PrintField("Period", fmt.Sprintf("%s ~ %s", valueOr(cfg.EvaluationFrom, "?"), valueOr(cfg.EvaluationTo, "?")))
	PrintField("Max items", cfg.MaxItems)
	PrintField("Delay", fmt.Sprintf("%dms", cfg.InterItemDelayMs))
	PrintField("Thresholds", fmt.Sprintf("PnL >= %.2f%%, ratio >= %.2f", th.MinPrimaryPercent, th.MinSecondaryRatio))
	PrintField("Drop action", cfg.DropAction)
	PrintField("Destination", cfg.ExportDestination)

	sources := make([]string, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		sources = append(sources, s.String())
	}
	PrintField("Sources", strings.Join(sources, ", "))
	PrintSeparator()
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
