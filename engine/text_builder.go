package engine

import (
	"fmt"
	"strings"

	"github.com/spektr-org/scorecard/schema"
)

// ============================================================================
// TEXT BUILDER — About text, legend and entity summaries
// ============================================================================

// Heading shown above every view.
const DashboardTitle = "Urban Governance Improvement Action Plan (UGIAP) for IUGIP"

const defaultAboutText = "The Government of the People's Republic of Bangladesh will receive a loan " +
	"towards the cost of the Improving Urban Governance and Infrastructure Program (IUGIP) from " +
	"Asian Development Bank (ADB) and Agence Francaise De Development (AFD). It is expected that " +
	"the fund or loan will be received from ADB and AFD for the 50 target Pourashavas (PSs), for " +
	"enhancing the scope of the Pourashavas. The project is going to launch implementation " +
	"activities in 2023 and planned to be implemented over a period of 6 (six) years with ending in 2029."

// BuildLegendText is the one-line grade legend under the Overview charts.
func BuildLegendText() string {
	return schema.Legend()
}

// BuildEntitySummary describes one entity's standing in a sentence.
func BuildEntitySummary(e Entity, ranked []RankedEntity, sch schema.Schema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s scored %s of %s", e.Name, FormatScore(e.TotalScore), FormatScore(sch.TotalMax()))
	if e.Grade != "" {
		fmt.Fprintf(&b, ", grade %s (%s)", e.Grade, e.Grade.Label())
	}
	for _, r := range ranked {
		if r.Name == e.Name {
			fmt.Fprintf(&b, ", ranked %d of %d", r.Rank, len(ranked))
			break
		}
	}
	b.WriteString(".")
	return b.String()
}

// BuildLoadSummary reports how many entities a snapshot holds and how many
// rows were excluded while loading it.
func BuildLoadSummary(snap *Snapshot) string {
	n := len(snap.malformed)
	if n == 0 {
		return fmt.Sprintf("%s Pourashavas loaded from %s.", FormatInt(snap.Len()), snap.SourceName())
	}
	return fmt.Sprintf("%s Pourashavas loaded from %s; %s rows excluded.",
		FormatInt(snap.Len()), snap.SourceName(), FormatInt(n))
}
