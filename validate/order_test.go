package validate

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"writing_marketplace/constants"
	"writing_marketplace/model"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorBody struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

func orderApp(captured *model.OrderInput, files *int) *fiber.App {
	app := fiber.New()
	app.Post("/orders", OrderForm(), func(c *fiber.Ctx) error {
		*captured = c.Locals("inputOrder").(model.OrderInput)
		*files = len(c.Locals("inputFiles").([]*multipart.FileHeader))
		return c.SendStatus(fiber.StatusCreated)
	})
	return app
}

func decodeError(t *testing.T, res *http.Response) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body
}

func TestOrderFormMultipartWithStringNumbers(t *testing.T) {
	var got model.OrderInput
	var files int
	app := orderApp(&got, &files)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range map[string]string{
		"type_of_service": "Writing",
		"document_type":   "essay",
		"writer_level":    "university",
		"subject":         "History",
		"topic":           "The printing press",
		"paper_format":    "APA",
		"spacing":         "double",
		"writer_category": "standard",
		"pages":           "3",
		"deadline":        "2025-03-12T12:00:00Z",
		"payment_option":  "half",
		"tip":             "2.50",
	} {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("files", "brief.pdf")
	require.NoError(t, err)
	_, err = io.WriteString(part, "%PDF-1.4")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/orders", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	assert.Equal(t, "writing", got.ServiceType)
	assert.Equal(t, 3, got.Pages)
	assert.Equal(t, "half", got.PaymentOption)
	assert.Equal(t, "2.5", got.Tip.String())
	require.NotNil(t, got.Deadline)
	assert.Equal(t, 12, got.Deadline.Day())
	assert.Equal(t, 1, files)
}

func TestOrderFormJSONRequiresFieldsUnlessDraft(t *testing.T) {
	var got model.OrderInput
	var files int
	app := orderApp(&got, &files)

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"topic":"only a topic","pages":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	body := decodeError(t, res)
	assert.Equal(t, "must be a whole number", body.Fields["pages"])
	assert.Equal(t, "is required", body.Fields["type_of_service"])
	assert.Contains(t, body.Fields, "deadline")

	req = httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"topic":"only a topic","pages":2,"save_as_draft":true}`))
	req.Header.Set("Content-Type", "application/json")
	res, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, res.StatusCode)
	assert.True(t, got.SaveAsDraft)
	assert.Equal(t, 2, got.Pages)
	assert.Zero(t, files)
}

func TestOrderFormRejectsBadOptions(t *testing.T) {
	var got model.OrderInput
	var files int
	app := orderApp(&got, &files)

	payload := `{"type_of_service":"translation","document_type":"essay","writer_level":"university","subject":"s",` +
		`"topic":"t","paper_format":"APA","spacing":"double","writer_category":"standard","pages":1,` +
		`"deadline":"2025-03-12","payment_option":"quarter","tip":"-1"}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	body := decodeError(t, res)
	assert.Equal(t, "must be one of: writing, editing, calculations", body.Fields["type_of_service"])
	assert.Equal(t, "must be one of: full, half", body.Fields["payment_option"])
	assert.Equal(t, "must be a non-negative amount", body.Fields["tip"])
}

func TestParseDeadlineLayouts(t *testing.T) {
	for _, v := range []string{"2025-03-12T08:30:00+02:00", "2025-03-12T06:30", "2025-03-12 06:30"} {
		got, err := parseDeadline(v)
		require.NoError(t, err, v)
		assert.Equal(t, 6, got.Hour(), v)
		assert.Equal(t, 30, got.Minute(), v)
	}
	_, err := parseDeadline("next tuesday")
	assert.Error(t, err)
}

func TestOrderFilterStatus(t *testing.T) {
	app := fiber.New()
	app.Get("/orders", OrderFilter(), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("inputOrderFilter").(model.OrderFilter).Status)
	})

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/orders?status=in%20progress&limit=5", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	b, _ := io.ReadAll(res.Body)
	assert.Equal(t, "assigned", string(b))

	res, err = app.Test(httptest.NewRequest(http.MethodGet, "/orders?status=shipped", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	res, err = app.Test(httptest.NewRequest(http.MethodGet, "/orders?limit=500", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestQuoteIgnoresValuesThatDoNotParse(t *testing.T) {
	var got model.OrderInput
	app := fiber.New()
	app.Post("/quote", Quote(), func(c *fiber.Ctx) error {
		got = c.Locals("inputOrder").(model.OrderInput)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/quote", strings.NewReader(`{"type_of_service":"writing","pages":"abc","tip":"-5","sources":2}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	assert.Equal(t, "writing", got.ServiceType)
	assert.Zero(t, got.Pages)
	assert.True(t, got.Tip.IsZero())
	assert.Equal(t, 2, got.Sources)
	assert.True(t, got.Present["pages"])
	assert.False(t, got.Present["deadline"])
}

func TestUploadTotalAgainstCap(t *testing.T) {
	part := &multipart.FileHeader{Filename: "chapter.pdf", Size: 40 << 20}
	assert.LessOrEqual(t, uploadTotal([]*multipart.FileHeader{part, part}), int64(constants.MAX_UPLOAD_TOTAL))
	assert.Greater(t, uploadTotal([]*multipart.FileHeader{part, part, part}), int64(constants.MAX_UPLOAD_TOTAL))
	// the total is tighter than MAX_ORDER_FILES files of MAX_FILE_SIZE each
	assert.Less(t, int64(constants.MAX_UPLOAD_TOTAL), int64(constants.MAX_ORDER_FILES*constants.MAX_FILE_SIZE))
	assert.Greater(t, int64(constants.MAX_REQUEST_BODY), int64(constants.MAX_UPLOAD_TOTAL))
}
