package engine

import (
	"fmt"

	"github.com/spektr-org/scorecard/schema"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from aggregation results
// ============================================================================

// BuildRankingTable lays out the top-N ranking.
func BuildRankingTable(ranked []RankedEntity, total int) *TableData {
	columns := []Column{
		{Key: "rank", Label: "Rank", Type: "number", Align: "center"},
		{Key: "name", Label: schema.FieldName, Type: "text", Align: "left"},
		{Key: "total_score", Label: schema.FieldTotalScore, Type: "number", Align: "right"},
		{Key: "grade", Label: schema.FieldGrade, Type: "grade", Align: "center"},
	}

	rows := make([][]string, 0, len(ranked))
	for _, r := range ranked {
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.Rank),
			r.Name,
			FormatScore(r.TotalScore),
			string(r.Grade),
		})
	}

	return &TableData{
		Title:   fmt.Sprintf("Top %d Pourashavas", len(ranked)),
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label: fmt.Sprintf("Showing %d of %s", len(ranked), FormatInt(total)),
			Values: map[string]string{
				"rank": FormatInt(len(ranked)),
			},
		},
	}
}

// BuildIndicatorTable lays out one entity's indicator statuses: one column
// per indicator field, one row.
func BuildIndicatorTable(c schema.Category, row IndicatorRow) *TableData {
	columns := make([]Column, 0, len(row.Fields))
	for _, field := range row.Fields {
		columns = append(columns, Column{
			Key:   field,
			Label: field,
			Type:  "status",
			Align: "left",
		})
	}

	values := make([]string, len(row.Values))
	copy(values, row.Values)

	return &TableData{
		Title:   c.Label,
		Columns: columns,
		Rows:    [][]string{values},
	}
}
