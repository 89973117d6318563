package handler

import (
	"time"
)

type registerRequest struct {
	Name            string `json:"name"`
	ObservedCounter uint64 `json:"observed_counter"`
	PaymentWei      string `json:"payment_wei"`
}

type registerResponse struct {
	Name       string    `json:"name"`
	NameID     string    `json:"name_id"`
	EscrowID   string    `json:"escrow_id"`
	ReceiptID  string    `json:"receipt_id"`
	Owner      string    `json:"owner"`
	Expiration time.Time `json:"expiration"`
	PriceWei   string    `json:"price_wei"`
	Counter    uint64    `json:"counter"`
}

type renewResponse struct {
	Name       string    `json:"name"`
	NameID     string    `json:"name_id"`
	Expiration time.Time `json:"expiration"`
}

type transferRequest struct {
	NewOwner string `json:"new_owner"`
}

type transferResponse struct {
	Name     string `json:"name"`
	Owner    string `json:"owner"`
	NewOwner string `json:"new_owner"`
}

type withdrawRequest struct {
	Payout string `json:"payout"`
}

type withdrawResponse struct {
	Name      string `json:"name"`
	AmountWei string `json:"amount_wei"`
	Payout    string `json:"payout"`
}

type availabilityResponse struct {
	Name       string    `json:"name"`
	Available  bool      `json:"available"`
	Expiration time.Time `json:"expiration,omitzero"`
	Counter    uint64    `json:"counter"`
}

type priceResponse struct {
	Name     string `json:"name"`
	PriceWei string `json:"price_wei"`
}

type hashResponse struct {
	Hash string `json:"hash"`
}

type counterResponse struct {
	Counter uint64 `json:"counter"`
}

type receiptResponse struct {
	PriceInWei string    `json:"price_in_wei"`
	Timestamp  time.Time `json:"timestamp,omitzero"`
	Expiration time.Time `json:"expiration,omitzero"`
}

type receiptListResponse struct {
	Owner    string   `json:"owner"`
	Receipts []string `json:"receipts"`
}
