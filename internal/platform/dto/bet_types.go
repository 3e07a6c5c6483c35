package dto

type BetTypeSelection struct {
	OutcomeID string `json:"outcomeId"`
	MarketID  string `json:"marketId"`
	MatchID   string `json:"matchId"`
}

type BetTypesRequest struct {
	Selections []BetTypeSelection `json:"selections"`
}

type BetType struct {
	Code         string `json:"code"` // ex: "single", "double", "treble"
	Name         string `json:"name"`
	NumberOfBets int    `json:"numberOfBets"`
}

type BetTypesResponse struct {
	BetTypes []BetType `json:"betTypes"`
}
