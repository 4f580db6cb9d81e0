package dto

// MedicationRequest creates or updates a medication. QuantityInStock is only read on
// create.
type MedicationRequest struct {
	Name            string  `json:"name" validate:"required,max=200"`
	DosageForm      string  `json:"dosage_form" validate:"max=100"`
	QuantityInStock int     `json:"quantity_in_stock" validate:"gte=0"`
	ExpiryDate      *string `json:"expiry_date"`
}

// AdjustStockRequest applies a signed stock correction.
type AdjustStockRequest struct {
	Delta  int    `json:"delta" validate:"required,ne=0"`
	Reason string `json:"reason" validate:"required,max=500"`
}
