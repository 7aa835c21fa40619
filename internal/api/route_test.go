package api_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielsotopino/api-transbank/internal/api"
	"github.com/danielsotopino/api-transbank/internal/api/contract"
	v1 "github.com/danielsotopino/api-transbank/internal/api/v1"
	"github.com/danielsotopino/api-transbank/internal/config"
	"github.com/danielsotopino/api-transbank/internal/constants"
	errmiddleware "github.com/danielsotopino/api-transbank/internal/error"
	"github.com/danielsotopino/api-transbank/internal/metrics"
	"github.com/danielsotopino/api-transbank/internal/mocks"
	"github.com/danielsotopino/api-transbank/internal/service"
	"github.com/danielsotopino/api-transbank/internal/validator"
	"github.com/danielsotopino/api-transbank/pkg/tracing"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Code     string          `json:"code"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	XTrackID string          `json:"x_track_id"`
}

type testApp struct {
	app          *fiber.App
	inscriptions *mocks.InscriptionService
	transactions *mocks.TransactionService
	history      *mocks.HistoryService
}

func newTestApp() *testApp {
	ta := &testApp{
		inscriptions: &mocks.InscriptionService{},
		transactions: &mocks.TransactionService{},
		history:      &mocks.HistoryService{},
	}

	cfg := &config.Config{
		API:     config.API{ServiceName: "api-transbank"},
		Tracing: tracing.Config{ServiceName: "api-transbank"},
	}

	registry := prometheus.NewRegistry()
	ta.app = fiber.New(fiber.Config{ErrorHandler: errmiddleware.ErrorHandler(zap.NewNop())})
	handler := v1.NewHandler(zap.NewNop(), ta.inscriptions, ta.transactions, ta.history)
	api.SetupRoutes(ta.app, handler, metrics.NewMetrics(registry), registry, nil, cfg, zap.NewNop())

	return ta
}

func (ta *testApp) do(t *testing.T, method, target, body string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ta.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))

	return resp.StatusCode, env
}

func TestInscriptionRoutes(t *testing.T) {
	t.Run("Start answers 201 with the gateway token", func(t *testing.T) {
		ta := newTestApp()
		ta.inscriptions.On("Start", mock.Anything, service.StartInscriptionCommand{
			Username:    "alice",
			Email:       "alice@example.com",
			ResponseURL: "https://shop.example.com/return",
		}).Return(service.StartInscriptionResponse{Token: "tok-1", URLWebpay: "https://webpay/start"}, nil)

		status, env := ta.do(t, "POST", "/api/v1/inscription/start",
			`{"username":"alice","email":"alice@example.com","response_url":"https://shop.example.com/return"}`)

		assert.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, constants.CodeSuccess, env.Code)
		assert.Equal(t, constants.MsgInscriptionStarted, env.Message)
		assert.NotEmpty(t, env.XTrackID)

		var data service.StartInscriptionResponse
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "tok-1", data.Token)
		ta.inscriptions.AssertExpectations(t)
	})

	t.Run("Malformed body is rejected before the service", func(t *testing.T) {
		ta := newTestApp()

		status, env := ta.do(t, "POST", "/api/v1/inscription/start", `{"username":`)

		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, constants.ErrCodeInvalidRequestBody, env.Code)
		ta.inscriptions.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
	})

	t.Run("Validation failures name the field", func(t *testing.T) {
		ta := newTestApp()
		ta.inscriptions.On("Start", mock.Anything, mock.Anything).Return(service.StartInscriptionResponse{},
			service.NewServiceError(constants.ErrCodeValidationFailed,
				validator.Errors{{FailedField: "username", Tag: "username"}}))

		status, env := ta.do(t, "POST", "/api/v1/inscription/start", `{"username":"bad name"}`)

		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, constants.ErrCodeValidationFailed, env.Code)
		assert.Equal(t, "request validation failed: The 'username' format is invalid", env.Message)
	})

	t.Run("Result callback finishes with TBK_TOKEN", func(t *testing.T) {
		ta := newTestApp()
		ta.inscriptions.On("Finish", mock.Anything, service.FinishInscriptionCommand{Token: "tok-1"}).
			Return(service.FinishInscriptionResponse{Status: "COMPLETED", TbkUser: "tbk-user"}, nil)

		status, env := ta.do(t, "GET", "/api/v1/inscription/result?TBK_TOKEN=tok-1", "")

		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, constants.MsgInscriptionFinished, env.Message)
		ta.inscriptions.AssertExpectations(t)
	})

	t.Run("Expired token maps to 410", func(t *testing.T) {
		ta := newTestApp()
		ta.inscriptions.On("Finish", mock.Anything, service.FinishInscriptionCommand{Token: "tok-1"}).
			Return(service.FinishInscriptionResponse{},
				service.NewServiceError(constants.ErrCodeExpiredToken, errors.New("expired")))

		status, env := ta.do(t, "PUT", "/api/v1/inscription/finish", `{"token":"tok-1"}`)

		assert.Equal(t, fiber.StatusGone, status)
		assert.Equal(t, constants.ErrCodeExpiredToken, env.Code)
	})

	t.Run("Delete passes username and tbk_user", func(t *testing.T) {
		ta := newTestApp()
		deletedAt := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
		ta.inscriptions.On("Delete", mock.Anything, service.DeleteInscriptionCommand{Username: "alice", TbkUser: "tbk-user"}).
			Return(service.DeleteInscriptionResponse{DeletedAt: deletedAt}, nil)

		status, env := ta.do(t, "DELETE", "/api/v1/inscription/delete", `{"username":"alice","tbk_user":"tbk-user"}`)

		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, constants.MsgInscriptionDeleted, env.Message)
	})

	t.Run("List reads the username from the path", func(t *testing.T) {
		ta := newTestApp()
		ta.inscriptions.On("List", mock.Anything, service.ListInscriptionsQuery{Username: "alice"}).
			Return(service.ListInscriptionsResponse{Inscriptions: []service.Inscription{{ID: "ins-1", Status: "COMPLETED"}}}, nil)

		status, env := ta.do(t, "GET", "/api/v1/inscription/alice", "")

		assert.Equal(t, fiber.StatusOK, status)

		var data service.ListInscriptionsResponse
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Len(t, data.Inscriptions, 1)
		assert.Equal(t, "ins-1", data.Inscriptions[0].ID)
	})
}

func TestTransactionRoutes(t *testing.T) {
	t.Run("Authorize maps every detail", func(t *testing.T) {
		ta := newTestApp()
		ta.transactions.On("Authorize", mock.Anything, mock.MatchedBy(func(cmd service.AuthorizeCommand) bool {
			return cmd.ParentBuyOrder == "PARENT-1" && len(cmd.Details) == 2 &&
				cmd.Details[1].CommerceCode == "597055555543" && cmd.Details[1].Amount == 2000
		})).Return(service.TransactionResponse{ParentBuyOrder: "PARENT-1", Status: "AUTHORIZED"}, nil)

		status, env := ta.do(t, "POST", "/api/v1/transaction/authorize", `{
			"username":"alice","tbk_user":"tbk-user","parent_buy_order":"PARENT-1",
			"details":[
				{"commerce_code":"597055555542","buy_order":"CHILD-1","amount":1000,"installments_number":1},
				{"commerce_code":"597055555543","buy_order":"CHILD-2","amount":2000,"installments_number":1}
			]}`)

		assert.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, constants.MsgTransactionAuthorize, env.Message)
		ta.transactions.AssertExpectations(t)
	})

	t.Run("Capture mismatch maps to 422", func(t *testing.T) {
		ta := newTestApp()
		ta.transactions.On("Capture", mock.Anything, service.CaptureCommand{
			CommerceCode:      "597055555542",
			BuyOrder:          "CHILD-1",
			AuthorizationCode: "999999",
			CaptureAmount:     500,
		}).Return(service.CaptureResponse{},
			service.NewServiceError(constants.ErrCodeAuthorizationCodeMismatch, errors.New("mismatch")))

		status, env := ta.do(t, "PUT", "/api/v1/transaction/capture",
			`{"commerce_code":"597055555542","buy_order":"CHILD-1","authorization_code":"999999","capture_amount":500}`)

		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
		assert.Equal(t, constants.ErrCodeAuthorizationCodeMismatch, env.Code)
	})

	t.Run("Refund success", func(t *testing.T) {
		ta := newTestApp()
		ta.transactions.On("Refund", mock.Anything, service.RefundCommand{
			CommerceCode: "597055555542",
			BuyOrder:     "CHILD-1",
			Amount:       300,
		}).Return(service.RefundResponse{ReversalType: "REVERSED", ReversedAmount: 300}, nil)

		status, env := ta.do(t, "POST", "/api/v1/transaction/refund",
			`{"commerce_code":"597055555542","buy_order":"CHILD-1","amount":300}`)

		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, constants.MsgTransactionRefunded, env.Message)
	})

	t.Run("Status reads child buy order and commerce code", func(t *testing.T) {
		ta := newTestApp()
		ta.transactions.On("Status", mock.Anything, service.StatusQuery{BuyOrder: "CHILD-1", CommerceCode: "597055555542"}).
			Return(service.StatusResponse{}, service.NewServiceError(constants.ErrCodeTransactionNotFound, errors.New("missing")))

		status, env := ta.do(t, "GET", "/api/v1/transaction/status/CHILD-1?child_commerce_code=597055555542", "")

		assert.Equal(t, fiber.StatusNotFound, status)
		assert.Equal(t, constants.ErrCodeTransactionNotFound, env.Code)
	})

	t.Run("History parses filters and paging", func(t *testing.T) {
		ta := newTestApp()
		ta.history.On("History", mock.Anything, service.HistoryQuery{
			Username: "alice",
			From:     "2024-03-01",
			To:       "2024-03-31",
			Status:   "AUTHORIZED",
			Page:     2,
			Limit:    10,
			AsOf:     "2024-03-10T12:00:00Z",
		}).Return(service.HistoryResponse{Page: 2, Limit: 10, Total: 15, TotalPages: 2}, nil)

		status, env := ta.do(t, "GET",
			"/api/v1/transaction/history/alice?from=2024-03-01&to=2024-03-31&status=AUTHORIZED&page=2&limit=10&as_of=2024-03-10T12:00:00Z", "")

		assert.Equal(t, fiber.StatusOK, status)

		var data service.HistoryResponse
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, int64(15), data.Total)
		ta.history.AssertExpectations(t)
	})

	t.Run("History rejects non-numeric paging", func(t *testing.T) {
		for _, target := range []string{
			"/api/v1/transaction/history/alice?page=abc",
			"/api/v1/transaction/history/alice?limit=10x",
			"/api/v1/transaction/history/alice?page=1.5",
		} {
			ta := newTestApp()

			status, env := ta.do(t, "GET", target, "")

			assert.Equal(t, fiber.StatusBadRequest, status, target)
			assert.Equal(t, constants.ErrCodeValidationFailed, env.Code, target)
			assert.Contains(t, env.Message, "must be an integer", target)
			ta.history.AssertNotCalled(t, "History", mock.Anything, mock.Anything)
		}
	})

	t.Run("Technical failures hide their cause", func(t *testing.T) {
		ta := newTestApp()
		ta.transactions.On("Refund", mock.Anything, mock.Anything).Return(service.RefundResponse{},
			service.NewServiceError(constants.ErrCodeDatabaseError, errors.New("dial tcp 10.0.0.5:3306")))

		status, env := ta.do(t, "POST", "/api/v1/transaction/refund",
			`{"commerce_code":"597055555542","buy_order":"CHILD-1","amount":300}`)

		assert.Equal(t, fiber.StatusInternalServerError, status)
		assert.Equal(t, constants.ErrCodeInternalError, env.Code)
		assert.Equal(t, constants.ErrMsgInternalError, env.Message)
	})
}

func TestOperationalRoutes(t *testing.T) {
	t.Run("Track id from the caller is echoed", func(t *testing.T) {
		ta := newTestApp()
		ta.inscriptions.On("List", mock.Anything, mock.Anything).Return(service.ListInscriptionsResponse{}, nil)

		req := httptest.NewRequest("GET", "/api/v1/inscription/alice", nil)
		req.Header.Set(contract.HeaderTrackID, "trace-me")

		resp, err := ta.app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, "trace-me", resp.Header.Get(contract.HeaderTrackID))

		var env envelope
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
		assert.Equal(t, "trace-me", env.XTrackID)
	})

	t.Run("Unknown routes answer NOT_FOUND", func(t *testing.T) {
		ta := newTestApp()

		status, env := ta.do(t, "GET", "/api/v1/nothing/here", "")

		assert.Equal(t, fiber.StatusNotFound, status)
		assert.Equal(t, constants.ErrCodeNotFound, env.Code)
	})

	t.Run("Ping, health and metrics", func(t *testing.T) {
		ta := newTestApp()

		resp, err := ta.app.Test(httptest.NewRequest("GET", "/ping", nil))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "pong", string(body))

		resp, err = ta.app.Test(httptest.NewRequest("GET", "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp, err = ta.app.Test(httptest.NewRequest("GET", "/metrics", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body, _ = io.ReadAll(resp.Body)
		assert.Contains(t, string(body), "oneclick_http_requests_total")
	})
}
