package utils

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"writing_marketplace/config"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// the receipt template references the order QR code by this content id
const receiptQRName = "order-qr.png"

//go:embed templates/*.html
var templateFS embed.FS

type PaymentReceiptData struct {
	CustomerName string
	OrderID      string
	Topic        string
	Pages        int
	Deadline     string
	Method       string
	Amount       string
	StatusLabel  string
	DetailLink   string
}

type WriterMessageData struct {
	WriterName string
	SenderName string
	OrderID    string
	Subject    string
	Body       string
	InboxLink  string
}

// Mailer sends templated HTML mail over SMTP. With no SMTP host configured
// it logs and drops every message.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	tmpl   *template.Template
	log    *zap.Logger
}

func NewMailer(cfg config.SMTP, log *zap.Logger) (*Mailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	m := &Mailer{from: cfg.From, tmpl: tmpl, log: log}
	if cfg.Host != "" {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return m, nil
}

func (m *Mailer) SendPaymentReceipt(to string, data PaymentReceiptData) error {
	body, err := m.render("payment_receipt.html", data)
	if err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Payment received for order "+data.OrderID)
	msg.SetBody("text/html", body)

	qr, err := receiptQR(data.DetailLink)
	if err != nil {
		m.log.Warn("receipt qr code failed", zap.String("order_id", data.OrderID), zap.Error(err))
	}
	if qr != nil {
		msg.Embed(receiptQRName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(qr)
			return err
		}))
	}
	return m.send(msg)
}

// receiptQR renders the order detail link as a PNG for the receipt. No link
// means no code.
func receiptQR(link string) ([]byte, error) {
	if link == "" {
		return nil, nil
	}
	return qrcode.Encode(link, qrcode.Medium, 256)
}

func (m *Mailer) SendWriterMessage(to string, data WriterMessageData) error {
	body, err := m.render("writer_message.html", data)
	if err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", data.Subject)
	msg.SetBody("text/html", body)
	return m.send(msg)
}

func (m *Mailer) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := m.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (m *Mailer) send(msg *gomail.Message) error {
	if m.dialer == nil {
		m.log.Info("smtp disabled, dropping email", zap.Strings("to", msg.GetHeader("To")))
		return nil
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
