package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"writing_marketplace/constants"
	"writing_marketplace/model"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// accepted deadline layouts, tried in order; zone-less values are UTC
var deadlineLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// OrderForm parses the order form from multipart or JSON. Numbers and
// booleans may arrive as strings. Required fields are only enforced when the
// order is not being saved as a draft.
func OrderForm() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fields, files, err := orderFields(c)
		if err != nil {
			return Fail(c, err)
		}
		input, errs := parseOrderInput(fields)
		if !input.SaveAsDraft {
			if err := Struct(input); err != nil {
				if fe, ok := err.(FieldErrors); ok {
					for k, v := range fe {
						if _, seen := errs[k]; !seen {
							errs[k] = v
						}
					}
				} else {
					return Fail(c, err)
				}
			}
		}

		if len(files) > constants.MAX_ORDER_FILES {
			errs["files"] = fmt.Sprintf("at most %d files are allowed", constants.MAX_ORDER_FILES)
		}
		for _, f := range files {
			if err := checkFile(f, "files"); err != nil {
				for k, v := range err.(FieldErrors) {
					errs[k] = v
				}
				break
			}
		}
		if _, seen := errs["files"]; !seen && uploadTotal(files) > constants.MAX_UPLOAD_TOTAL {
			errs["files"] = fmt.Sprintf("files may add up to at most %dMB", constants.MAX_UPLOAD_TOTAL>>20)
		}
		if len(errs) > 0 {
			return Fail(c, errs)
		}

		c.Locals("inputOrder", input)
		c.Locals("inputFiles", files)
		return c.Next()
	}
}

// Quote parses the same form for a price preview. Nothing is required and
// values that do not parse are priced as zero.
func Quote() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fields, _, err := orderFields(c)
		if err != nil {
			return Fail(c, err)
		}
		input, _ := parseOrderInput(fields)
		c.Locals("inputOrder", input)
		return c.Next()
	}
}

func OrderFilter() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var filter model.OrderFilter
		if err := c.QueryParser(&filter); err != nil {
			return Fail(c, err)
		}
		if err := Struct(filter); err != nil {
			return Fail(c, err)
		}
		if filter.Status != "" {
			status, err := model.ParseOrderStatus(filter.Status)
			if err != nil {
				return Fail(c, FieldErrors{"status": "is not a known order status"})
			}
			filter.Status = string(status)
		}
		c.Locals("inputOrderFilter", filter)
		return c.Next()
	}
}

func AssignOrder() fiber.Handler {
	return body[model.AssignOrderInput]("inputAssignOrder")
}

func OrderStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.OrderStatusInput
		if err := c.BodyParser(&input); err != nil {
			return Fail(c, err)
		}
		if err := Struct(input); err != nil {
			return Fail(c, err)
		}
		status, err := model.ParseOrderStatus(input.Status)
		if err != nil {
			return Fail(c, FieldErrors{"status": "is not a known order status"})
		}
		c.Locals("inputOrderStatus", status)
		return c.Next()
	}
}

func checkFile(f *multipart.FileHeader, field string) error {
	if f.Size > constants.MAX_FILE_SIZE {
		return FieldErrors{field: fmt.Sprintf("%s is larger than %dMB", f.Filename, constants.MAX_FILE_SIZE>>20)}
	}
	return nil
}

// orderFields flattens the submitted form to strings.
func uploadTotal(files []*multipart.FileHeader) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}

func orderFields(c *fiber.Ctx) (map[string]string, []*multipart.FileHeader, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, nil, err
		}
		fields := make(map[string]string, len(form.Value))
		for k, v := range form.Value {
			if len(v) > 0 {
				fields[k] = v[0]
			}
		}
		return fields, form.File["files"], nil
	}

	fields := map[string]string{}
	if len(bytes.TrimSpace(c.Body())) == 0 {
		return fields, nil, nil
	}
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("decode order form: %w", err)
	}
	for k, v := range raw {
		switch t := v.(type) {
		case nil:
			fields[k] = ""
		case string:
			fields[k] = t
		case json.Number:
			fields[k] = t.String()
		case bool:
			fields[k] = strconv.FormatBool(t)
		default:
			fields[k] = fmt.Sprint(t)
		}
	}
	return fields, nil, nil
}

func parseOrderInput(fields map[string]string) (model.OrderInput, FieldErrors) {
	errs := FieldErrors{}
	text := func(key string) string { return strings.TrimSpace(fields[key]) }
	option := func(key string) string { return strings.ToLower(text(key)) }
	number := func(key string) int {
		v := text(key)
		if v == "" {
			return 0
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			// "3.0" from a number input
			f, ferr := strconv.ParseFloat(v, 64)
			if ferr != nil || f != float64(int(f)) {
				errs[key] = "must be a whole number"
				return 0
			}
			n = int(f)
		}
		return n
	}
	flag := func(key string) bool {
		switch option(key) {
		case "true", "1", "on", "yes":
			return true
		case "", "false", "0", "off", "no":
			return false
		}
		errs[key] = "must be true or false"
		return false
	}

	in := model.OrderInput{
		ServiceType:      option("type_of_service"),
		DocumentType:     text("document_type"),
		AcademicLevel:    text("writer_level"),
		Subject:          text("subject"),
		Topic:            text("topic"),
		PaperFormat:      text("paper_format"),
		Language:         text("language"),
		Spacing:          option("spacing"),
		WriterCategory:   option("writer_category"),
		Pages:            number("pages"),
		Words:            number("words"),
		Sources:          number("sources"),
		Slides:           number("slides"),
		Charts:           number("charts"),
		Instructions:     fields["instructions"],
		PlagiarismReport: flag("plagiarism_report"),
		PaymentOption:    option("payment_option"),
		CouponCode:       text("coupon_code"),
		SaveAsDraft:      flag("save_as_draft"),
		Present:          make(map[string]bool, len(fields)),
	}
	for k := range fields {
		in.Present[k] = true
	}

	if v := text("tip"); v != "" {
		tip, err := decimal.NewFromString(v)
		if err != nil || tip.IsNegative() {
			errs["tip"] = "must be a non-negative amount"
		} else {
			in.Tip = tip
		}
	}
	if v := text("deadline"); v != "" {
		deadline, err := parseDeadline(v)
		if err != nil {
			errs["deadline"] = "must be a date and time"
		} else {
			in.Deadline = &deadline
		}
	}
	return in, errs
}

func parseDeadline(v string) (time.Time, error) {
	var lastErr error
	for _, layout := range deadlineLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
