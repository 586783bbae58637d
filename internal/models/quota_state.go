package models

// QuotaState is the client-held coin balance for the current day
type QuotaState struct {
	Remaining     int    `json:"remaining"`
	LastResetDate string `json:"last_reset_date"`
}
