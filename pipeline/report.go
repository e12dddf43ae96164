package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/poiesic/devscout/core"
)

// WriteReport prints a run summary: total duration plus per-phase
// succeeded and dropped counts with wall-clock timings.
func WriteReport(w io.Writer, record *core.RunRecord) {
	total := record.FinishedAt.Sub(record.StartedAt)
	fmt.Fprintf(w, "\nRun %s finished in %v\n", record.Id, total.Round(time.Second))
	fmt.Fprintf(w, "  discovery:  %d logins, %d duplicates dropped (%v)\n",
		record.Discovery.Succeeded, record.Discovery.Dropped, phaseDuration(record.Discovery))
	fmt.Fprintf(w, "  fetch:      %d profiles, %d dropped (%v)\n",
		record.Fetch.Succeeded, record.Fetch.Dropped, phaseDuration(record.Fetch))
	fmt.Fprintf(w, "  ranking:    %d ranked, %d gated out (%v)\n",
		record.Ranking.Succeeded, record.Ranking.Dropped, phaseDuration(record.Ranking))
	fmt.Fprintf(w, "  enrichment: %d with readmes, %d without (%v)\n",
		record.Enrichment.Succeeded, record.Enrichment.Dropped, phaseDuration(record.Enrichment))
}

func phaseDuration(stats core.PhaseStats) time.Duration {
	return stats.Duration.Round(time.Millisecond)
}
