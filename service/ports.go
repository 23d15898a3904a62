package service

import (
	"io"

	"writing_marketplace/utils"
)

// Notifier delivers transactional email. utils.Mailer satisfies it.
type Notifier interface {
	SendPaymentReceipt(to string, data utils.PaymentReceiptData) error
	SendWriterMessage(to string, data utils.WriterMessageData) error
}

// Attachment is one uploaded file handed over by the transport layer.
type Attachment struct {
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
}
