package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgnsrekt/gexbot-analytics/internal/batch"
)

const maxListed = 3

// FormatBatchMessage lists the environment and flip level of each analyzed
// chain followed by up to three failures.
func FormatBatchMessage(result *batch.BatchResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Files: %d analyzed, %d failed\n", result.Success, result.Failed)
	for _, s := range result.Summaries {
		flip := "none"
		if s.GammaFlipLevel != nil {
			flip = fmt.Sprintf("%.2f", *s.GammaFlipLevel)
		}
		fmt.Fprintf(&sb, "%s @ %.2f: %s (%s), flip %s\n", s.Symbol, s.Spot, s.Environment, s.StrengthLevel, flip)
	}
	fmt.Fprintf(&sb, "Duration: %s", result.Duration.Round(time.Millisecond))

	if len(result.Errors) > 0 {
		sb.WriteString("\n\nErrors:\n")
		limit := min(len(result.Errors), maxListed)
		for _, e := range result.Errors[:limit] {
			fmt.Fprintf(&sb, "- %s: %s\n", e.Path, e.Error)
		}
		if len(result.Errors) > maxListed {
			fmt.Fprintf(&sb, "... and %d more errors", len(result.Errors)-maxListed)
		}
	}

	return sb.String()
}
