package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/radieske/betslip-sync/internal/betslip"
	"github.com/radieske/betslip-sync/internal/history"
	"github.com/radieske/betslip-sync/internal/platform/dto"
)

// betslipView espelha a resposta de GET /v1/betslip
type betslipView struct {
	Tickets   []betslip.Ticket      `json:"tickets"`
	BetTypes  betslip.BetTypesState `json:"betTypes"`
	OddsBoost *boostView            `json:"oddsBoost"`
}

type boostView struct {
	betslip.OddsBoostState
	SelectionsNeededForNextTier int `json:"selectionsNeededForNextTier"`
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func renderBetslip(w io.Writer, v betslipView) {
	if len(v.Tickets) == 0 {
		fmt.Fprintln(w, "betslip is empty")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Ticket", "Match", "Market", "Outcome", "Odd", "Available")
	for i, t := range v.Tickets {
		match := t.MatchDescription
		if match == "" {
			match = t.MatchID
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			t.ID,
			match,
			t.MarketDescription,
			t.OutcomeDescription,
			t.Odd.StringFixed(2),
			yesNo(t.IsAvailable),
		)
	}
	table.Render()

	renderBetTypes(w, v.BetTypes)
	renderBoost(w, v.OddsBoost)
}

func renderBetTypes(w io.Writer, s betslip.BetTypesState) {
	switch s.State {
	case betslip.LoadLoaded:
	case betslip.LoadFailed:
		fmt.Fprintf(w, "bet types: error (%s)\n", s.Err)
		return
	default:
		fmt.Fprintf(w, "bet types: %s\n", s.State)
		return
	}
	codes := make([]string, 0, len(s.BetTypes))
	for _, bt := range s.BetTypes {
		codes = append(codes, fmt.Sprintf("%s x%d", bt.Code, bt.NumberOfBets))
	}
	fmt.Fprintf(w, "bet types: %s\n", strings.Join(codes, ", "))
}

func renderBoost(w io.Writer, b *boostView) {
	if b == nil {
		fmt.Fprintln(w, "odds boost: none")
		return
	}
	cur := "none"
	if b.CurrentTier != nil {
		cur = b.CurrentTier.Percentage.String() + "%"
	}
	fmt.Fprintf(w, "odds boost: %s", cur)
	if b.NextTier != nil {
		fmt.Fprintf(w, " (next %s%% with %d more selections)", b.NextTier.Percentage.String(), b.SelectionsNeededForNextTier)
	}
	fmt.Fprintln(w)
}

func renderPlacement(w io.Writer, resp dto.PlaceBetsResponse) {
	table := tablewriter.NewWriter(w)
	table.Header("Bet", "Status", "Message")
	for _, b := range resp.Bets {
		table.Append(b.BetID, b.Status, b.Message)
	}
	table.Render()
}

func renderHistory(w io.Writer, items []history.Placement) {
	if len(items) == 0 {
		fmt.Fprintln(w, "no placements yet")
		return
	}
	table := tablewriter.NewWriter(w)
	table.Header("Placed at", "Request", "Grouping", "Stake", "Selections", "Bets")
	for _, p := range items {
		table.Append(
			p.PlacedAt.Local().Format("2006-01-02 15:04:05"),
			p.RequestID,
			p.Grouping,
			p.Stake+" "+p.Currency,
			fmt.Sprintf("%d", p.Selections),
			fmt.Sprintf("%d", len(p.BetIDs)),
		)
	}
	table.Render()
}
