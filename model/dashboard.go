package model

import "github.com/shopspring/decimal"

// StatusBuckets counts orders per display bucket. All includes rows whose
// stored status is outside the closed set; no other bucket does.
type StatusBuckets struct {
	All         int64 `json:"all"`
	Draft       int64 `json:"draft"`
	Pending     int64 `json:"pending"`
	Paid        int64 `json:"paid"`
	InProgress  int64 `json:"inProgress"`
	Completed   int64 `json:"completed"`
	Cancelled   int64 `json:"cancelled"`
	Disputed    int64 `json:"disputed"`
	Submitted   int64 `json:"submitted"`
	Unconfirmed int64 `json:"unconfirmed"`
	Failed      int64 `json:"failed"`
}

type RecentOrder struct {
	ID             string          `json:"id"`
	Topic          string          `json:"topic"`
	Subject        string          `json:"subject"`
	Pages          int             `json:"pages"`
	CheckoutAmount decimal.Decimal `json:"checkoutAmount"`
	Date           string          `json:"date"`
	Status         OrderStatus     `json:"status"`
	StatusLabel    string          `json:"statusLabel"`
}

// UnrecognizedStatuses on the dashboards is the part of Counts.All with a
// stored status outside the closed set.
type UserDashboard struct {
	Counts               StatusBuckets `json:"counts"`
	UnrecognizedStatuses int64         `json:"unrecognizedStatuses"`
	Recent               []RecentOrder `json:"recent"`
}

type AdminDashboard struct {
	Counts               StatusBuckets   `json:"counts"`
	UnrecognizedStatuses int64           `json:"unrecognizedStatuses"`
	Recent               []RecentOrder   `json:"recent"`
	Users                int64           `json:"users"`
	Writers              int64           `json:"writers"`
	Administrators       int64           `json:"administrators"`
	CompletedPayments    int64           `json:"completedPayments"`
	Revenue              decimal.Decimal `json:"revenue"`
}
