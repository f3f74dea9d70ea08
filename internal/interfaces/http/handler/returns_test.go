package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	returnsapp "github.com/wms/backend/internal/application/returns"
	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/returns"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/interfaces/http/middleware"
)

// MockReturnRepository implements returns.ReturnRepository for testing
type MockReturnRepository struct {
	mock.Mock
}

func (m *MockReturnRepository) Create(ctx context.Context, request *returns.ReturnRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*returns.ReturnRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returns.ReturnRequest), args.Error(1)
}

func (m *MockReturnRepository) FindByCode(ctx context.Context, code string) (*returns.ReturnRequest, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returns.ReturnRequest), args.Error(1)
}

func (m *MockReturnRepository) FindAll(ctx context.Context, filter shared.Filter) ([]returns.ReturnRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]returns.ReturnRequest), args.Error(1)
}

func (m *MockReturnRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReturnRepository) FindByStatus(ctx context.Context, status returns.ReturnStatus, filter shared.Filter) ([]returns.ReturnRequest, error) {
	args := m.Called(ctx, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]returns.ReturnRequest), args.Error(1)
}

func (m *MockReturnRepository) FindInRange(ctx context.Context, from, to *time.Time) ([]returns.ReturnRequest, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]returns.ReturnRequest), args.Error(1)
}

func (m *MockReturnRepository) SaveWithLock(ctx context.Context, request *returns.ReturnRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockReturnRepository) SaveLine(ctx context.Context, line *returns.ReturnLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *MockReturnRepository) MaxCodeSequence(ctx context.Context, prefix string) (int, error) {
	args := m.Called(ctx, prefix)
	return args.Int(0), args.Error(1)
}

var _ returns.ReturnRepository = (*MockReturnRepository)(nil)

// MockStockLedger implements inventory.StockLedger for testing
type MockStockLedger struct {
	mock.Mock
}

func (m *MockStockLedger) GetBalance(ctx context.Context, materialID uuid.UUID, locationID *uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, materialID, locationID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockStockLedger) GetMaterialMeta(ctx context.Context, materialID uuid.UUID) (*inventory.MaterialMeta, error) {
	args := m.Called(ctx, materialID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.MaterialMeta), args.Error(1)
}

func (m *MockStockLedger) GetOrCreateStock(ctx context.Context, materialID, locationID uuid.UUID) (*inventory.MaterialStock, error) {
	args := m.Called(ctx, materialID, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.MaterialStock), args.Error(1)
}

func (m *MockStockLedger) SaveWithLock(ctx context.Context, stock *inventory.MaterialStock) error {
	args := m.Called(ctx, stock)
	return args.Error(0)
}

func (m *MockStockLedger) RecordMovement(ctx context.Context, movement *inventory.StockMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

var _ inventory.StockLedger = (*MockStockLedger)(nil)

// passthroughLocker runs critical sections inline, good enough for
// single-goroutine handler tests.
type passthroughLocker struct{}

func (passthroughLocker) WithLock(ctx context.Context, scope string, fn func() error) error {
	return fn()
}

// Test helpers

var testUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func setupReturnTestRouter() (*gin.Engine, *MockReturnRepository, *MockStockLedger, *ReturnHandler) {
	gin.SetMode(gin.TestMode)

	mockRepo := new(MockReturnRepository)
	mockLedger := new(MockStockLedger)

	logger := zap.NewNop()
	workflow := returnsapp.NewWorkflowService(
		mockRepo,
		mockLedger,
		returns.NewLineValidator(mockLedger),
		returns.NewMovementPolicy(),
		returnsapp.NewCodeGenerator(mockRepo, passthroughLocker{}, logger),
		logger,
	)
	summary := returnsapp.NewSummaryService(mockRepo)
	handler := NewReturnHandler(workflow, summary)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.JWTUserIDKey, testUserID.String())
		c.Next()
	})

	return router, mockRepo, mockLedger, handler
}

func testMaterialMeta(id uuid.UUID) *inventory.MaterialMeta {
	price := decimal.RequireFromString("12.50")
	return &inventory.MaterialMeta{
		ID:         id,
		Code:       "MAT-001",
		Name:       "Hex Bolt M8",
		Active:     true,
		Returnable: true,
		UnitPrice:  &price,
	}
}

func testReturn(id uuid.UUID, status returns.ReturnStatus) *returns.ReturnRequest {
	request, err := returns.NewReturnRequest("RET-CUST-2608-0001", returns.CategoryCustomer, testUserID, "damaged in transit")
	if err != nil {
		panic(err)
	}
	request.ID = id
	request.Status = status
	return request
}

func customerCodePrefix() string {
	return fmt.Sprintf("%s-%s-", returns.CategoryCustomer.CodePrefix(), time.Now().Format("0601"))
}

// Tests

func TestReturnHandler_Submit(t *testing.T) {
	t.Run("creates return when all lines validate", func(t *testing.T) {
		router, mockRepo, mockLedger, handler := setupReturnTestRouter()
		router.POST("/returns", handler.Submit)

		materialID := uuid.New()
		destination := uuid.New()

		mockLedger.On("GetMaterialMeta", mock.Anything, materialID).
			Return(testMaterialMeta(materialID), nil)
		mockLedger.On("GetBalance", mock.Anything, materialID, (*uuid.UUID)(nil)).
			Return(decimal.NewFromInt(100), nil)
		mockRepo.On("MaxCodeSequence", mock.Anything, customerCodePrefix()).
			Return(4, nil)
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*returns.ReturnRequest")).
			Return(nil)

		reqBody := returnsapp.SubmitReturnRequest{
			Category: returns.CategoryCustomer,
			Reason:   "damaged in transit",
			Lines: []returnsapp.SubmitLineRequest{
				{
					MaterialID:            materialID,
					Quantity:              decimal.NewFromInt(5),
					DestinationLocationID: &destination,
				},
			},
		}
		body, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/returns", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response["success"].(bool))

		data := response["data"].(map[string]interface{})
		assert.Equal(t, customerCodePrefix()+"0005", data["code"])
		assert.Equal(t, "PENDING", data["status"])

		mockRepo.AssertExpectations(t)
		mockLedger.AssertExpectations(t)
	})

	t.Run("rejects whole submission when a line fails validation", func(t *testing.T) {
		router, mockRepo, mockLedger, handler := setupReturnTestRouter()
		router.POST("/returns", handler.Submit)

		materialID := uuid.New()

		mockLedger.On("GetMaterialMeta", mock.Anything, materialID).
			Return(testMaterialMeta(materialID), nil)
		mockLedger.On("GetBalance", mock.Anything, materialID, (*uuid.UUID)(nil)).
			Return(decimal.NewFromInt(2), nil)

		reqBody := returnsapp.SubmitReturnRequest{
			Category: returns.CategoryCustomer,
			Reason:   "damaged in transit",
			Lines: []returnsapp.SubmitLineRequest{
				{MaterialID: materialID, Quantity: decimal.NewFromInt(5)},
			},
		}
		body, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/returns", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.False(t, response["success"].(bool))

		data := response["data"].(map[string]interface{})
		validation := data["validation"].([]interface{})
		require.Len(t, validation, 1)
		line := validation[0].(map[string]interface{})
		assert.False(t, line["valid"].(bool))
		assert.Equal(t, "INSUFFICIENT_STOCK", line["failure_code"])

		// Nothing persisted on a failed submission
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects request without lines", func(t *testing.T) {
		router, _, _, handler := setupReturnTestRouter()
		router.POST("/returns", handler.Submit)

		body := []byte(`{"category": "CUSTOMER", "reason": "damaged", "lines": []}`)
		req, _ := http.NewRequest(http.MethodPost, "/returns", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects request without authenticated user", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		_, _, _, handler := setupReturnTestRouter()

		// Router without the identity middleware
		router := gin.New()
		router.POST("/returns", handler.Submit)

		body := []byte(`{"category": "CUSTOMER", "reason": "damaged"}`)
		req, _ := http.NewRequest(http.MethodPost, "/returns", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestReturnHandler_Get(t *testing.T) {
	t.Run("returns the request by ID", func(t *testing.T) {
		router, mockRepo, _, handler := setupReturnTestRouter()
		router.GET("/returns/:id", handler.Get)

		id := uuid.New()
		mockRepo.On("FindByID", mock.Anything, id).
			Return(testReturn(id, returns.ReturnStatusPending), nil)

		req, _ := http.NewRequest(http.MethodGet, "/returns/"+id.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, id.String(), data["id"])
		assert.Equal(t, "PENDING", data["status"])
	})

	t.Run("returns 404 for unknown ID", func(t *testing.T) {
		router, mockRepo, _, handler := setupReturnTestRouter()
		router.GET("/returns/:id", handler.Get)

		id := uuid.New()
		mockRepo.On("FindByID", mock.Anything, id).
			Return(nil, shared.ErrNotFound)

		req, _ := http.NewRequest(http.MethodGet, "/returns/"+id.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("returns 400 for malformed ID", func(t *testing.T) {
		router, _, _, handler := setupReturnTestRouter()
		router.GET("/returns/:id", handler.Get)

		req, _ := http.NewRequest(http.MethodGet, "/returns/not-a-uuid", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReturnHandler_GetByCode(t *testing.T) {
	router, mockRepo, _, handler := setupReturnTestRouter()
	router.GET("/returns/code/:code", handler.GetByCode)

	id := uuid.New()
	mockRepo.On("FindByCode", mock.Anything, "RET-CUST-2608-0001").
		Return(testReturn(id, returns.ReturnStatusApproved), nil)

	req, _ := http.NewRequest(http.MethodGet, "/returns/code/RET-CUST-2608-0001", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "RET-CUST-2608-0001", data["code"])
}

func TestReturnHandler_List(t *testing.T) {
	router, mockRepo, _, handler := setupReturnTestRouter()
	router.GET("/returns", handler.List)

	items := []returns.ReturnRequest{
		*testReturn(uuid.New(), returns.ReturnStatusPending),
		*testReturn(uuid.New(), returns.ReturnStatusProcessed),
	}
	mockRepo.On("FindAll", mock.Anything, mock.AnythingOfType("shared.Filter")).
		Return(items, nil)
	mockRepo.On("Count", mock.Anything, mock.AnythingOfType("shared.Filter")).
		Return(int64(2), nil)

	req, _ := http.NewRequest(http.MethodGet, "/returns?page=1&page_size=20", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response["success"].(bool))
	assert.Len(t, response["data"].([]interface{}), 2)

	meta := response["meta"].(map[string]interface{})
	assert.Equal(t, float64(2), meta["total"])
	assert.Equal(t, float64(1), meta["page"])
}

func TestReturnHandler_ListPending(t *testing.T) {
	router, mockRepo, _, handler := setupReturnTestRouter()
	router.GET("/returns/pending", handler.ListPending)

	items := []returns.ReturnRequest{*testReturn(uuid.New(), returns.ReturnStatusPending)}
	mockRepo.On("FindByStatus", mock.Anything, returns.ReturnStatusPending, mock.AnythingOfType("shared.Filter")).
		Return(items, nil)
	mockRepo.On("Count", mock.Anything, mock.AnythingOfType("shared.Filter")).
		Return(int64(1), nil)

	req, _ := http.NewRequest(http.MethodGet, "/returns/pending", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockRepo.AssertExpectations(t)
}

func TestReturnHandler_Approve(t *testing.T) {
	t.Run("approves a pending return", func(t *testing.T) {
		router, mockRepo, _, handler := setupReturnTestRouter()
		router.POST("/returns/:id/approve", handler.Approve)

		id := uuid.New()
		mockRepo.On("FindByID", mock.Anything, id).
			Return(testReturn(id, returns.ReturnStatusPending), nil)
		mockRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*returns.ReturnRequest")).
			Return(nil)

		body := []byte(`{"note": "looks fine"}`)
		req, _ := http.NewRequest(http.MethodPost, "/returns/"+id.String()+"/approve", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "APPROVED", data["status"])
	})

	t.Run("returns 409 on a concurrent modification", func(t *testing.T) {
		router, mockRepo, _, handler := setupReturnTestRouter()
		router.POST("/returns/:id/approve", handler.Approve)

		id := uuid.New()
		mockRepo.On("FindByID", mock.Anything, id).
			Return(testReturn(id, returns.ReturnStatusPending), nil)
		mockRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*returns.ReturnRequest")).
			Return(shared.ErrConcurrencyConflict)

		body := []byte(`{}`)
		req, _ := http.NewRequest(http.MethodPost, "/returns/"+id.String()+"/approve", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("returns 422 when the return is not pending", func(t *testing.T) {
		router, mockRepo, _, handler := setupReturnTestRouter()
		router.POST("/returns/:id/approve", handler.Approve)

		id := uuid.New()
		mockRepo.On("FindByID", mock.Anything, id).
			Return(testReturn(id, returns.ReturnStatusProcessed), nil)

		body := []byte(`{}`)
		req, _ := http.NewRequest(http.MethodPost, "/returns/"+id.String()+"/approve", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestReturnHandler_Reject(t *testing.T) {
	t.Run("rejects a pending return with a reason", func(t *testing.T) {
		router, mockRepo, _, handler := setupReturnTestRouter()
		router.POST("/returns/:id/reject", handler.Reject)

		id := uuid.New()
		mockRepo.On("FindByID", mock.Anything, id).
			Return(testReturn(id, returns.ReturnStatusPending), nil)
		mockRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*returns.ReturnRequest")).
			Return(nil)

		body := []byte(`{"reason": "wrong paperwork"}`)
		req, _ := http.NewRequest(http.MethodPost, "/returns/"+id.String()+"/reject", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "REJECTED", data["status"])
	})

	t.Run("requires a reason", func(t *testing.T) {
		router, _, _, handler := setupReturnTestRouter()
		router.POST("/returns/:id/reject", handler.Reject)

		body := []byte(`{}`)
		req, _ := http.NewRequest(http.MethodPost, "/returns/"+uuid.New().String()+"/reject", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReturnHandler_Process(t *testing.T) {
	t.Run("applies an approved customer return to the ledger", func(t *testing.T) {
		router, mockRepo, mockLedger, handler := setupReturnTestRouter()
		router.POST("/returns/:id/process", handler.Process)

		id := uuid.New()
		materialID := uuid.New()
		destination := uuid.New()

		request := testReturn(id, returns.ReturnStatusApproved)
		line, err := returns.NewReturnLine(
			id, materialID, "MAT-001", "Hex Bolt M8",
			decimal.NewFromInt(5), decimal.RequireFromString("12.50"),
			"damaged", nil, &destination,
		)
		require.NoError(t, err)
		request.Lines = []returns.ReturnLine{*line}

		stock, err := inventory.NewMaterialStock(materialID, destination)
		require.NoError(t, err)

		mockRepo.On("FindByID", mock.Anything, id).Return(request, nil)
		mockLedger.On("GetMaterialMeta", mock.Anything, materialID).
			Return(testMaterialMeta(materialID), nil)
		mockLedger.On("GetBalance", mock.Anything, materialID, (*uuid.UUID)(nil)).
			Return(decimal.NewFromInt(100), nil)
		mockLedger.On("GetOrCreateStock", mock.Anything, materialID, destination).
			Return(stock, nil)
		mockLedger.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*inventory.MaterialStock")).
			Return(nil)
		mockLedger.On("RecordMovement", mock.Anything, mock.AnythingOfType("*inventory.StockMovement")).
			Return(nil)
		mockRepo.On("SaveLine", mock.Anything, mock.AnythingOfType("*returns.ReturnLine")).
			Return(nil)
		mockRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*returns.ReturnRequest")).
			Return(nil)

		body := []byte(`{"note": "restocked"}`)
		req, _ := http.NewRequest(http.MethodPost, "/returns/"+id.String()+"/process", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "PROCESSED", data["final_status"])
		assert.Equal(t, float64(1), data["movements_applied"])

		mockLedger.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})

	t.Run("returns 422 for a pending return", func(t *testing.T) {
		router, mockRepo, _, handler := setupReturnTestRouter()
		router.POST("/returns/:id/process", handler.Process)

		id := uuid.New()
		mockRepo.On("FindByID", mock.Anything, id).
			Return(testReturn(id, returns.ReturnStatusPending), nil)

		body := []byte(`{}`)
		req, _ := http.NewRequest(http.MethodPost, "/returns/"+id.String()+"/process", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestReturnHandler_Summary(t *testing.T) {
	t.Run("aggregates returns inside the window", func(t *testing.T) {
		router, mockRepo, _, handler := setupReturnTestRouter()
		router.GET("/returns/summary", handler.Summary)

		first := testReturn(uuid.New(), returns.ReturnStatusProcessed)
		first.TotalValue = decimal.RequireFromString("62.50")
		second := testReturn(uuid.New(), returns.ReturnStatusPending)
		second.TotalValue = decimal.RequireFromString("25.00")

		mockRepo.On("FindInRange", mock.Anything, mock.Anything, mock.Anything).
			Return([]returns.ReturnRequest{*first, *second}, nil)

		req, _ := http.NewRequest(http.MethodGet, "/returns/summary?from=2026-08-01&to=2026-08-31", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, float64(2), data["total_count"])
		assert.Equal(t, "87.5", data["total_value"])

		byStatus := data["by_status"].(map[string]interface{})
		assert.Equal(t, float64(1), byStatus["PROCESSED"])
		assert.Equal(t, float64(1), byStatus["PENDING"])
	})

	t.Run("rejects an inverted window", func(t *testing.T) {
		router, _, _, handler := setupReturnTestRouter()
		router.GET("/returns/summary", handler.Summary)

		req, _ := http.NewRequest(http.MethodGet, "/returns/summary?from=2026-08-31&to=2026-08-01", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
