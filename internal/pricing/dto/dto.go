package dto

import "github.com/fekuna/repairshop-service/internal/model"

type QuoteStatus string

const (
	// QuoteChooseModel means nothing was selected yet.
	QuoteChooseModel QuoteStatus = "choose_model"
	QuoteNoPrice     QuoteStatus = "no_price"
	QuotePriced      QuoteStatus = "priced"
)

type QuoteInput struct {
	Category string `json:"category"`
	Model    string `json:"model"`
	Lang     string `json:"lang"`
}

type Quote struct {
	Category string       `json:"category"`
	Model    string       `json:"model"`
	Status   QuoteStatus  `json:"status"`
	Price    *model.Price `json:"price,omitempty"`
	Label    string       `json:"label"`
}
