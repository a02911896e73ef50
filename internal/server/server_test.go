package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/limaskap/limaskap/internal/authorization"
	"github.com/limaskap/limaskap/internal/config"
	enrollmentdomain "github.com/limaskap/limaskap/internal/enrollment/domain"
	"github.com/limaskap/limaskap/internal/observability"
	obsmetrics "github.com/limaskap/limaskap/internal/observability/metrics"
	paymentdomain "github.com/limaskap/limaskap/internal/payment/domain"
	programdomain "github.com/limaskap/limaskap/internal/program/domain"
	"github.com/limaskap/limaskap/internal/providers/frisbii"
	"github.com/limaskap/limaskap/internal/validation"
	"github.com/limaskap/limaskap/internal/viewer"
	"github.com/limaskap/limaskap/pkg/db/pagination"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEnrollmentService struct {
	enrollmentdomain.Service

	createErr error
	created   *enrollmentdomain.CreateRequest
	byHandle  map[string]*enrollmentdomain.Response
}

func (f *fakeEnrollmentService) CreateWithCheckout(ctx context.Context, v *viewer.Viewer, req enrollmentdomain.CreateRequest) (*enrollmentdomain.CheckoutResponse, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = &req
	return &enrollmentdomain.CheckoutResponse{
		OrderID:       "order_1",
		SessionID:     "cs_1",
		CheckoutURL:   "https://checkout.example/cs_1",
		PaymentHandle: "program-10-abc",
		InvoiceHandle: "program-10-abc",
	}, nil
}

func (f *fakeEnrollmentService) GetByInvoiceHandle(ctx context.Context, invoiceHandle string) (*enrollmentdomain.Response, error) {
	resp, ok := f.byHandle[invoiceHandle]
	if !ok {
		return nil, enrollmentdomain.ErrNotFound
	}
	return resp, nil
}

func (f *fakeEnrollmentService) GetByID(ctx context.Context, v *viewer.Viewer, id int64) (*enrollmentdomain.Response, error) {
	return &enrollmentdomain.Response{ID: id}, nil
}

type fakeWebhookProcessor struct {
	err      error
	payloads [][]byte
}

func (f *fakeWebhookProcessor) Process(ctx context.Context, payload []byte) error {
	f.payloads = append(f.payloads, payload)
	return f.err
}

type testServer struct {
	engine      *gin.Engine
	enrollments *fakeEnrollmentService
	webhooks    *fakeWebhookProcessor
}

func newTestServer(t *testing.T, v *viewer.Viewer) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := NewEngine(observability.Config{}, obsmetrics.NewHTTPMetricsWith(prometheus.NewRegistry()))
	if v != nil {
		engine.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(viewer.WithViewer(c.Request.Context(), v))
			c.Next()
		})
	}

	enrollments := &fakeEnrollmentService{byHandle: map[string]*enrollmentdomain.Response{}}
	webhooks := &fakeWebhookProcessor{}
	NewServer(ServerParams{
		Gin:           engine,
		Cfg:           config.Config{},
		Viewers:       viewer.NewMiddleware(config.Config{}, nil, zap.NewNop()),
		EnrollmentSvc: enrollments,
		Webhooks:      webhooks,
	})

	return &testServer{engine: engine, enrollments: enrollments, webhooks: webhooks}
}

func (s *testServer) do(method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestCreateEnrollmentRequiresViewer(t *testing.T) {
	srv := newTestServer(t, nil)

	w := srv.do(http.MethodPost, "/enrollments", []byte(`{"programId":10,"memberId":100}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, srv.enrollments.created)
}

func TestCreateEnrollmentReturnsCheckout(t *testing.T) {
	srv := newTestServer(t, &viewer.Viewer{UserID: "user_1", Email: "anna@example.com"})

	w := srv.do(http.MethodPost, "/enrollments", []byte(`{"programId":10,"memberId":100}`))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Data enrollmentdomain.CheckoutResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://checkout.example/cs_1", resp.Data.CheckoutURL)
	require.NotNil(t, srv.enrollments.created)
	assert.Equal(t, int64(10), srv.enrollments.created.ProgramID)
	assert.Equal(t, int64(100), srv.enrollments.created.MemberID)
}

func TestCreateEnrollmentErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"duplicate", enrollmentdomain.ErrAlreadyExists, http.StatusConflict, "Enrollment already exists for this program and member"},
		{"not owned", enrollmentdomain.ErrMemberNotOwned, http.StatusUnauthorized, "Member record does not belong to current user"},
		{"program missing", programdomain.ErrNotFound, http.StatusNotFound, "Program not found"},
		{"no api key", enrollmentdomain.ErrPaymentKeyNotFound, http.StatusBadRequest, "Payment API key not found"},
		{"gateway rejected", &frisbii.APIError{StatusCode: 400, Message: "invalid amount"}, http.StatusBadRequest, "Payment provider error: invalid amount"},
		{"gateway schema", fmt.Errorf("%w: order.currency", frisbii.ErrInvalidRequest), http.StatusBadRequest, "Payment provider error: invalid request"},
		{"transport failure", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, &viewer.Viewer{UserID: "user_1"})
			srv.enrollments.createErr = tc.err

			w := srv.do(http.MethodPost, "/enrollments", []byte(`{"programId":10,"memberId":100}`))

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.message, decodeError(t, w).Message)
		})
	}
}

func TestCreateEnrollmentValidationIssues(t *testing.T) {
	srv := newTestServer(t, &viewer.Viewer{UserID: "user_1"})
	srv.enrollments.createErr = validation.Fail("programId", "gt", "must be greater than 0")

	w := srv.do(http.MethodPost, "/enrollments", []byte(`{"programId":0,"memberId":100}`))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	payload := decodeError(t, w)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "programId", payload.Errors[0].Field)
}

func TestCreateEnrollmentMalformedBody(t *testing.T) {
	srv := newTestServer(t, &viewer.Viewer{UserID: "user_1"})

	w := srv.do(http.MethodPost, "/enrollments", []byte(`{"programId":`))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Nil(t, srv.enrollments.created)
}

func TestGetEnrollmentByInvoiceHandleIsPublic(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.enrollments.byHandle["program-10-abc"] = &enrollmentdomain.Response{
		ID:            1,
		PaymentStatus: enrollmentdomain.PaymentStatusPaid,
	}

	w := srv.do(http.MethodGet, "/enrollments/invoice/program-10-abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data enrollmentdomain.Response `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, enrollmentdomain.PaymentStatusPaid, resp.Data.PaymentStatus)

	w = srv.do(http.MethodGet, "/enrollments/invoice/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Enrollment not found", decodeError(t, w).Message)
}

func TestGetEnrollmentRejectsMalformedID(t *testing.T) {
	srv := newTestServer(t, &viewer.Viewer{UserID: "user_1"})

	w := srv.do(http.MethodGet, "/enrollments/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(http.MethodGet, "/enrollments/7", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFrisbiiWebhookResponses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"acknowledged", nil, http.StatusOK, `{"message":"ok"}`},
		{"bad signature", paymentdomain.ErrInvalidSignature, http.StatusUnauthorized, ""},
		{"malformed", paymentdomain.ErrInvalidPayload, http.StatusBadRequest, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, nil)
			srv.webhooks.err = tc.err

			w := srv.do(http.MethodPost, "/webhooks/frisbii", []byte(`{"id":"wh_1"}`))

			assert.Equal(t, tc.status, w.Code)
			if tc.body != "" {
				assert.JSONEq(t, tc.body, w.Body.String())
			}
			require.Len(t, srv.webhooks.payloads, 1)
			assert.Equal(t, `{"id":"wh_1"}`, string(srv.webhooks.payloads[0]))
		})
	}
}

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{viewer.ErrUnauthorized, http.StatusUnauthorized},
		{paymentdomain.ErrNotOwner, http.StatusUnauthorized},
		{authorization.ErrForbidden, http.StatusForbidden},
		{ErrRateLimited, http.StatusTooManyRequests},
		{paymentdomain.ErrNotConfigured, http.StatusBadRequest},
		{pagination.ErrInvalidPageToken, http.StatusBadRequest},
		{paymentdomain.ErrNotFound, http.StatusNotFound},
		{paymentdomain.ErrEnrollmentNotFound, http.StatusNotFound},
		{enrollmentdomain.ErrInProgress, http.StatusConflict},
		{enrollmentdomain.ErrReceiptUnavailable, http.StatusConflict},
		{&frisbii.APIError{StatusCode: 502, Message: "bad gateway"}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		status, _ := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
	}

	status, payload := mapError(errors.Join(errors.New("wrapped"), paymentdomain.ErrNotConfigured))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Payment not configured for this organization", payload.Message)
}
