package view

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mcoot/scopa-go/internal/model"
)

// Winner describes who won, from player 1's seat numbering
func Winner(score model.ScoreSnapshot) string {
	switch {
	case score.Player1 > score.Player2:
		return "Player 1 wins!"
	case score.Player2 > score.Player1:
		return "Player 2 wins!"
	}
	return "It's a draw!"
}

type resultRow struct {
	label string
	p1    int
	p2    int
}

func resultRows(score model.ScoreSnapshot) []resultRow {
	return []resultRow{
		{"Points", score.Player1, score.Player2},
		{"Scope", score.Sweeps[0], score.Sweeps[1]},
		{"Cards taken", score.CardsTaken[0], score.CardsTaken[1]},
		{"Coins taken", score.CoinsTaken[0], score.CoinsTaken[1]},
	}
}

// ResultsText is the final score as a text table
func ResultsText(score model.ScoreSnapshot) string {
	var sb strings.Builder
	sb.WriteString("Final score\n")
	fmt.Fprintf(&sb, "%-12s %8s %8s\n", "", "Player 1", "Player 2")
	for _, r := range resultRows(score) {
		fmt.Fprintf(&sb, "%-12s %8d %8d\n", r.label, r.p1, r.p2)
	}
	sb.WriteString(Winner(score))
	sb.WriteString("\n")
	return sb.String()
}

// WriteResultsHTML renders the results page to w
func WriteResultsHTML(ctx context.Context, w io.Writer, score model.ScoreSnapshot) error {
	return ResultsPage(score).Render(ctx, w)
}
