package models

// Quote is a single live market-data tick for one symbol. Each quote simply
// replaces the previous value for that symbol; there is no history.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        int64   `json:"volume"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	Timestamp     string  `json:"timestamp"`
}
