package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Catppuccin Mocha color palette
var (
	colorMauve   = lipgloss.Color("#cba6f7") // Title
	colorBlue    = lipgloss.Color("#89b4fa") // Section headers
	colorGreen   = lipgloss.Color("#a6e3a1") // Commands
	colorYellow  = lipgloss.Color("#f9e2af") // Flags
	colorRed     = lipgloss.Color("#f38ba8") // CRITICAL tier
	colorPeach   = lipgloss.Color("#fab387") // HIGH tier
	colorMedium  = lipgloss.Color("#f9e2af") // MEDIUM tier
	colorLow     = lipgloss.Color("#94e2d5") // LOW tier
	colorOverlay = lipgloss.Color("#6c7086") // Muted text
	colorText    = lipgloss.Color("#cdd6f4") // Normal text
	colorBase    = lipgloss.Color("#1e1e2e") // Background
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMauve).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue).
			MarginTop(1)

	commandStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	flagStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	criticalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorRed)

	highStyle = lipgloss.NewStyle().
			Foreground(colorPeach)

	mediumStyle = lipgloss.NewStyle().
			Foreground(colorMedium)

	lowStyle = lipgloss.NewStyle().
			Foreground(colorLow)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorOverlay)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBlue).
			Background(colorBase).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)
)

func showQuickReference() {
	width := clampWidth(detectWidth())
	useUnicode := supportsUnicode()

	border := lipgloss.RoundedBorder()
	if !useUnicode {
		border = lipgloss.Border{
			Top:         "-",
			Bottom:      "-",
			Left:        "|",
			Right:       "|",
			TopLeft:     "+",
			TopRight:    "+",
			BottomLeft:  "+",
			BottomRight: "+",
		}
	}

	container := boxStyle.Copy().Border(border).Width(width)

	titleText := " LIFELINE QUICK REFERENCE — Crisis-Risk Scoring "
	titleRendered := gradientText(titleText, []lipgloss.Color{colorMauve, colorBlue})
	if !useUnicode {
		titleRendered = "LIFELINE QUICK REFERENCE - Crisis-Risk Scoring"
	}
	title := titleStyle.Copy().Width(width - 4).Align(lipgloss.Center).Render(titleRendered)

	scoring := renderSection(useUnicode, "🔷 SCORE A MESSAGE", []string{
		bullet("lifeline analyze \"<message>\" -j", "tier, score, confidence and routed reply"),
		bullet("echo \"<message>\" | lifeline analyze", "read the message from stdin"),
		bullet("lifeline scan transcript.txt --min-tier medium", "score one message per line"),
		bullet("lifeline scan export.txt --fail-on high", "exit 1 if any line reaches a tier"),
	})

	routing := renderSection(useUnicode, "🔶 ROUTE AND RECORD", []string{
		bullet("lifeline analyze --record -s <session> \"<message>\"", "screen like an integration and audit crises"),
		bullet("lifeline respond critical --locale uk", "show the routed reply for a tier"),
		bullet("lifeline helplines --all", "list helplines per locale"),
	})

	review := renderSection(useUnicode, "🔷 AS REVIEWER", []string{
		bullet("lifeline audit list --min-tier high", "recent crisis detections"),
		bullet("lifeline audit sessions", "sessions with detections"),
		bullet("lifeline audit stats --since 168h -j", "counts by tier"),
		bullet("lifeline console", "interactive reviewer console"),
		bullet("lifeline watch --min-tier critical", "alert as new crises are recorded"),
	})

	patterns := renderSection(useUnicode, "🛡️ PATTERNS", []string{
		bullet("lifeline patterns test \"<message>\"", "see which patterns match"),
		bullet("lifeline patterns export --out review.json", "catalogue for safety review"),
		bullet("lifeline config set scoring.high_threshold 0.6", "tune thresholds (validated)"),
	})

	tiers := tierLegend(useUnicode)
	flags := flagLegend(useUnicode)
	footer := footerLegend(useUnicode)

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		scoring,
		routing,
		review,
		patterns,
		tiers,
		flags,
		footer,
	)

	fmt.Println(container.Render(content))
}

func clampWidth(w int) int {
	if w < 72 {
		return 72
	}
	if w > 100 {
		return 100
	}
	return w
}

func detectWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	// fall back to environment or default
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if v, err := strconv.Atoi(cols); err == nil && v > 0 {
			return v
		}
	}
	return 80
}

func supportsUnicode() bool {
	termEnv := strings.ToLower(os.Getenv("TERM"))
	locale := strings.ToLower(strings.Join([]string{
		os.Getenv("LC_ALL"),
		os.Getenv("LC_CTYPE"),
		os.Getenv("LANG"),
	}, " "))
	if strings.Contains(termEnv, "dumb") {
		return false
	}
	return strings.Contains(locale, "utf-8") || strings.Contains(locale, "utf8")
}

func gradientText(text string, colors []lipgloss.Color) string {
	if len(colors) == 0 || !supportsUnicode() {
		return text
	}
	runes := []rune(text)
	segments := len(colors)
	if segments == 1 {
		return lipgloss.NewStyle().Foreground(colors[0]).Render(text)
	}
	// Handle single character case to avoid division by zero
	if len(runes) <= 1 {
		return lipgloss.NewStyle().Foreground(colors[0]).Render(text)
	}

	var b strings.Builder
	for i, r := range runes {
		// simple linear gradient selection
		idx := i * (segments - 1) / (len(runes) - 1)
		b.WriteString(lipgloss.NewStyle().Foreground(colors[idx]).Render(string(r)))
	}
	return b.String()
}

func bullet(command, desc string) string {
	return commandStyle.Render("  "+command) + mutedStyle.Render("  "+desc)
}

func renderSection(useUnicode bool, title string, lines []string) string {
	if !useUnicode {
		title = strings.TrimLeft(title, "🔷🔶🛡️ ") // strip icons for ASCII fallback
	}
	header := sectionStyle.Render(title)
	body := strings.Join(lines, "\n")
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func tierLegend(useUnicode bool) string {
	crit := "CRITICAL"
	high := "HIGH"
	med := "MEDIUM"
	low := "LOW"
	if useUnicode {
		crit = "🔴 " + crit
		high = "🟠 " + high
		med = "🟡 " + med
		low = "🟢 " + low
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render("🎯 SEVERITY TIERS"),
		fmt.Sprintf("  %s   %s   %s   %s", criticalStyle.Render(crit), highStyle.Render(high), mediumStyle.Render(med), lowStyle.Render(low)),
		mutedStyle.Render("  high and critical are crisis tiers: helplines in the reply, audited"),
	)
}

func flagLegend(useUnicode bool) string {
	prefix := "🚩 GLOBAL FLAGS"
	if !useUnicode {
		prefix = "FLAGS"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render(prefix),
		flagStyle.Render("  -j, --json")+mutedStyle.Render("              structured output"),
		flagStyle.Render("  -C, --project <dir>")+mutedStyle.Render("   override project path"),
		flagStyle.Render("  -L, --locale <code>")+mutedStyle.Render("   helpline locale"),
		flagStyle.Render("  -c, --config <file>")+mutedStyle.Render("   config file"),
		flagStyle.Render("  --db <path>")+mutedStyle.Render("               audit database path"),
	)
}

func footerLegend(useUnicode bool) string {
	human := "lifeline console"
	help := "lifeline <command> --help"
	if !useUnicode {
		return mutedStyle.Render("REVIEW: " + human + "   HELP: " + help)
	}
	return lipgloss.JoinHorizontal(lipgloss.Left,
		mutedStyle.Render("REVIEW: "), commandStyle.Render(human),
		mutedStyle.Render("   HELP: "), commandStyle.Render(help),
	)
}
