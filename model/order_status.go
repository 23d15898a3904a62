package model

import (
	"fmt"
	"strings"
)

type OrderStatus string

// Stored values keep the casing existing rows and clients already use.
const (
	StatusDraft       OrderStatus = "draft"
	StatusPending     OrderStatus = "pending"
	StatusPaid        OrderStatus = "Paid"
	StatusAssigned    OrderStatus = "assigned"
	StatusCompleted   OrderStatus = "completed"
	StatusCancelled   OrderStatus = "cancelled"
	StatusDisputed    OrderStatus = "disputed"
	StatusSubmitted   OrderStatus = "submitted"
	StatusUnconfirmed OrderStatus = "unconfirmed"
	StatusFailed      OrderStatus = "Failed"
)

var orderStatuses = []OrderStatus{
	StatusDraft,
	StatusPending,
	StatusPaid,
	StatusAssigned,
	StatusCompleted,
	StatusCancelled,
	StatusDisputed,
	StatusSubmitted,
	StatusUnconfirmed,
	StatusFailed,
}

var orderStatusLabels = map[OrderStatus]string{
	StatusDraft:       "Draft",
	StatusPending:     "Pending",
	StatusPaid:        "Paid",
	StatusAssigned:    "In Progress",
	StatusCompleted:   "Completed",
	StatusCancelled:   "Cancelled",
	StatusDisputed:    "Disputed",
	StatusSubmitted:   "Submitted",
	StatusUnconfirmed: "Unconfirmed",
	StatusFailed:      "Failed",
}

func AllOrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatuses))
	copy(out, orderStatuses)
	return out
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

// Label is the human readable status. Unknown values render as "Unknown".
func (s OrderStatus) Label() string {
	if l, ok := orderStatusLabels[s]; ok {
		return l
	}
	return "Unknown"
}

// ParseOrderStatus maps user supplied text onto the closed status set.
// Matching ignores case and also accepts the display label.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	v := strings.TrimSpace(raw)
	for _, s := range orderStatuses {
		if strings.EqualFold(v, string(s)) || strings.EqualFold(v, orderStatusLabels[s]) {
			return s, nil
		}
	}
	if strings.EqualFold(strings.ReplaceAll(v, "_", " "), "in progress") {
		return StatusAssigned, nil
	}
	return "", fmt.Errorf("unknown order status %q", raw)
}

// Actor identifies who asks for a status change.
type Actor string

const (
	ActorOwner   Actor = "owner"
	ActorAdmin   Actor = "admin"
	ActorPayment Actor = "payment"
	ActorSystem  Actor = "system"
)

type transition struct {
	from OrderStatus
	to   OrderStatus
}

var orderTransitions = map[transition][]Actor{
	{StatusDraft, StatusPending}:         {ActorOwner},
	{StatusPending, StatusPaid}:          {ActorPayment},
	{StatusFailed, StatusPaid}:           {ActorPayment},
	{StatusPending, StatusFailed}:        {ActorPayment},
	{StatusPending, StatusCancelled}:     {ActorOwner},
	{StatusPaid, StatusCancelled}:        {ActorOwner},
	{StatusFailed, StatusCancelled}:      {ActorOwner},
	{StatusPaid, StatusDisputed}:         {ActorOwner, ActorAdmin},
	{StatusAssigned, StatusDisputed}:     {ActorOwner, ActorAdmin},
	{StatusPaid, StatusAssigned}:         {ActorAdmin},
	{StatusAssigned, StatusSubmitted}:    {ActorAdmin},
	{StatusSubmitted, StatusCompleted}:   {ActorOwner, ActorAdmin},
	{StatusSubmitted, StatusUnconfirmed}: {ActorOwner, ActorAdmin},
	{StatusUnconfirmed, StatusSubmitted}: {ActorAdmin},
}

// CanTransition reports whether actor may move an order from one status to
// another. Moving into Paid is reserved to the payment actor.
func CanTransition(from, to OrderStatus, actor Actor) bool {
	actors, ok := orderTransitions[transition{from, to}]
	if !ok {
		return false
	}
	for _, a := range actors {
		if a == actor {
			return true
		}
	}
	return false
}

// PayableStatuses lists the statuses from which a checkout may start.
func PayableStatuses() []OrderStatus {
	return []OrderStatus{StatusPending, StatusFailed}
}

func (s OrderStatus) Payable() bool {
	return s == StatusPending || s == StatusFailed
}

func (s OrderStatus) Editable() bool {
	return s == StatusDraft || s == StatusPending
}

func (s OrderStatus) Deletable() bool {
	return s == StatusDraft
}
