package analyzer

import (
	"fmt"
	"strings"
)

// maxListedEntries caps how many channels and groups the summary shows.
const maxListedEntries = 5

// FormatSummary renders a human-readable summary of a region analysis.
// At most five channels and five groups are listed; a missing potential
// defaults to "medium" and a missing client estimate to 1000. The defaults
// apply only here, never on the stored report.
func FormatSummary(region string, report *Report) string {
	potential := report.Potential
	if potential == "" {
		potential = "medium"
	}

	clients := report.EstimatedClients
	if clients == 0 {
		clients = 1000
	}

	recommendations := report.Recommendations
	if recommendations == "" {
		recommendations = "Standard recommendations"
	}

	return fmt.Sprintf(
		"📊 Region analysis: %s\n\n"+
			"📈 Market potential: %s\n"+
			"👥 Potential clients: %d\n\n"+
			"📢 Recommended channels:\n%s\n\n"+
			"💬 Recommended groups:\n%s\n\n"+
			"💡 Recommendations:\n%s\n\n"+
			"🚗 Would you like a commercial offer?",
		region,
		strings.ToUpper(potential),
		clients,
		bulletList(report.Channels),
		bulletList(report.Groups),
		recommendations,
	)
}

func bulletList(entries []string) string {
	if len(entries) > maxListedEntries {
		entries = entries[:maxListedEntries]
	}

	var sb strings.Builder
	for i, entry := range entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("• " + entry)
	}
	return sb.String()
}
