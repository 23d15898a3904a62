package model

import (
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Order struct {
	DTO
	UserID   *uuid.UUID `gorm:"type:uuid;index" json:"userId"` // null for guest orders
	User     *User      `json:"user,omitempty"`
	WriterID *uuid.UUID `gorm:"type:uuid;index" json:"writerId"`
	Writer   *Writer    `json:"writer,omitempty"`

	ServiceType    string `gorm:"size:20" json:"serviceType"`
	DocumentType   string `gorm:"size:60" json:"documentType"`
	AcademicLevel  string `gorm:"size:30" json:"academicLevel"`
	Subject        string `gorm:"size:120" json:"subject"`
	PaperFormat    string `gorm:"size:30" json:"paperFormat"`
	Language       string `gorm:"size:30" json:"language"`
	Spacing        string `gorm:"size:10" json:"spacing"`
	WriterCategory string `gorm:"size:20" json:"writerCategory"`

	Pages   int `gorm:"not null;default:1" json:"pages"`
	Words   int `gorm:"not null;default:0" json:"words"`
	Sources int `gorm:"not null;default:0" json:"sources"`
	Slides  int `gorm:"not null;default:0" json:"slides"`
	Charts  int `gorm:"not null;default:0" json:"charts"`

	Deadline     *time.Time                  `json:"deadline"`
	Topic        string                      `json:"topic"`
	Instructions string                      `gorm:"type:text" json:"instructions"`
	Files        datatypes.JSONSlice[string] `json:"files"`

	PlagiarismReport bool            `gorm:"not null;default:false" json:"plagiarismReport"`
	Tip              decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"tip"`
	TotalPrice       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"totalPrice"`
	PaymentOption    string          `gorm:"size:10;not null;default:full" json:"paymentOption"`
	CouponCode       string          `gorm:"size:40" json:"couponCode"`
	AmountDue        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"amountDue"`
	CheckoutAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"checkoutAmount"`

	Status      OrderStatus `gorm:"size:20;not null;index" json:"status"`
	PaidAt      *time.Time  `json:"paidAt,omitempty"`
	CancelledAt *time.Time  `json:"cancelledAt,omitempty"`

	Payments []Payment `json:"payments,omitempty"`
}

// OrderInput is the validated, typed shape of an order form. The same value
// feeds the price engine and the persisted row.
type OrderInput struct {
	ServiceType      string          `json:"type_of_service" validate:"required,oneof=writing editing calculations"`
	DocumentType     string          `json:"document_type" validate:"required,max=60"`
	AcademicLevel    string          `json:"writer_level" validate:"required,max=30"`
	Subject          string          `json:"subject" validate:"required,max=120"`
	Topic            string          `json:"topic" validate:"required,max=500"`
	PaperFormat      string          `json:"paper_format" validate:"required,max=30"`
	Language         string          `json:"language" validate:"omitempty,max=30"`
	Spacing          string          `json:"spacing" validate:"required,oneof=double single"`
	WriterCategory   string          `json:"writer_category" validate:"required,oneof=standard advanced premium"`
	Pages            int             `json:"pages" validate:"min=1,max=500"`
	Words            int             `json:"words" validate:"min=0"`
	Sources          int             `json:"sources" validate:"min=0"`
	Slides           int             `json:"slides" validate:"min=0"`
	Charts           int             `json:"charts" validate:"min=0"`
	Deadline         *time.Time      `json:"deadline" validate:"required"`
	Instructions     string          `json:"instructions" validate:"omitempty,max=20000"`
	Tip              decimal.Decimal `json:"tip"`
	PlagiarismReport bool            `json:"plagiarism_report"`
	PaymentOption    string          `json:"payment_option" validate:"required,oneof=full half"`
	CouponCode       string          `json:"coupon_code" validate:"omitempty,max=40"`

	// SaveAsDraft keeps (or creates) the order as a draft and skips
	// required-field checks. Without it the order is, or becomes, pending.
	SaveAsDraft bool `json:"save_as_draft"`

	// Present holds the form keys the client actually sent. A draft update
	// only touches these; nil means every field was sent.
	Present map[string]bool `json:"-" copier:"-"`
}

// Overlay returns base with the fields of in that the client sent.
func (in OrderInput) Overlay(base OrderInput) OrderInput {
	if in.Present == nil {
		return in
	}
	out := base
	dst := reflect.ValueOf(&out).Elem()
	src := reflect.ValueOf(in)
	for i := 0; i < src.NumField(); i++ {
		name, _, _ := strings.Cut(src.Type().Field(i).Tag.Get("json"), ",")
		if in.Present[name] {
			dst.Field(i).Set(src.Field(i))
		}
	}
	out.SaveAsDraft = in.SaveAsDraft
	out.Present = in.Present
	return out
}

type OrderFilter struct {
	Pagination
	Status string `query:"status"`
	UserID string `query:"userId" validate:"omitempty,uuid"`
}

type AssignOrderInput struct {
	WriterID string `json:"writerId" validate:"required,uuid"`
}

type OrderStatusInput struct {
	Status string `json:"status" validate:"required"`
}
