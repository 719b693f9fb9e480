package validator

import "strings"

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

// TradeOfferFields is the subset of a trade-offer payload the transport
// validates before the service sees it.
type TradeOfferFields struct {
	PricePerUnit float64
	TotalAmount  float64
	StartTime    string
	TradeType    string
}

func ValidateSendMessage(text string, hasTradeOffer bool, offer TradeOfferFields) ValidationErrors {
	errs := make(ValidationErrors)

	text = strings.TrimSpace(text)
	if text == "" && !hasTradeOffer {
		errs.Add("text", "Message requires text or a trade offer")
		return errs
	}
	if text != "" && hasTradeOffer {
		errs.Add("text", "Message cannot carry both text and a trade offer")
		return errs
	}

	if hasTradeOffer {
		if offer.PricePerUnit <= 0 {
			errs.Add("tradeOffer.pricePerUnit", "Price per unit must be positive")
		}
		if offer.TotalAmount <= 0 {
			errs.Add("tradeOffer.totalAmount", "Total amount must be positive")
		}
		if strings.TrimSpace(offer.StartTime) == "" {
			errs.Add("tradeOffer.startTime", "Start time is required")
		}
		if offer.TradeType != "buy" && offer.TradeType != "sell" {
			errs.Add("tradeOffer.tradeType", "Trade type must be buy or sell")
		}
	}

	return errs
}

func ValidateTradeResponse(action string, pricePerUnit, totalAmount float64) ValidationErrors {
	errs := make(ValidationErrors)

	switch action {
	case "accept", "reject":
	case "counter":
		if pricePerUnit <= 0 {
			errs.Add("pricePerUnit", "Counter offer requires a positive price per unit")
		}
		if totalAmount <= 0 {
			errs.Add("totalAmount", "Counter offer requires a positive total amount")
		}
	case "":
		errs.Add("action", "Action is required")
	default:
		errs.Add("action", "Action must be accept, reject, or counter")
	}

	return errs
}
