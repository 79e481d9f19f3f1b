package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-challan-service/internal/apperror"
	"github.com/fekuna/omnipos-challan-service/internal/auth"
	"github.com/fekuna/omnipos-challan-service/internal/challan/dto"
	"github.com/fekuna/omnipos-challan-service/internal/httpapi"
	"github.com/fekuna/omnipos-challan-service/internal/logger"
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUseCase struct {
	created   *dto.CreateChallanInput
	cancelled *dto.CancelChallanInput
	search    *dto.SearchInput
	err       error
}

func (s *stubUseCase) CreateChallan(_ context.Context, in *dto.CreateChallanInput) (*model.Challan, error) {
	s.created = in
	if s.err != nil {
		return nil, s.err
	}
	return &model.Challan{ID: "c1", Number: "GST/25-26/001", TaxType: in.TaxType, CreatedBy: in.UserID}, nil
}

func (s *stubUseCase) PreviewTotals(_ context.Context, in *dto.CreateChallanInput) (*model.Totals, error) {
	s.created = in
	return &model.Totals{}, s.err
}

func (s *stubUseCase) GetChallan(_ context.Context, id string) (*model.Challan, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Challan{ID: id}, nil
}

func (s *stubUseCase) GetChallanByNumber(_ context.Context, number string) (*model.Challan, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Challan{ID: "c1", Number: number}, nil
}

func (s *stubUseCase) ListChallans(context.Context, *dto.ChallanFilters) ([]model.Challan, int, error) {
	return []model.Challan{{ID: "c1"}}, 1, s.err
}

func (s *stubUseCase) SearchChallans(_ context.Context, in *dto.SearchInput) ([]model.Challan, int, error) {
	s.search = in
	return nil, 0, s.err
}

func (s *stubUseCase) CancelChallan(_ context.Context, in *dto.CancelChallanInput) (*model.Challan, error) {
	s.cancelled = in
	if s.err != nil {
		return nil, s.err
	}
	return &model.Challan{ID: in.ChallanID}, nil
}

func newRouter(uc *stubUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1", httpapi.Identity())
	NewChallanHandler(uc, logger.NewNop()).Register(api)
	return r
}

func do(r http.Handler, method, path, body string, withUser bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if withUser {
		req.Header.Set(httpapi.HeaderUserID, "u1")
		req.Header.Set(httpapi.HeaderUserRole, auth.RoleAdmin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateChallanHandler(t *testing.T) {
	uc := &stubUseCase{}
	r := newRouter(uc)

	w := do(r, http.MethodPost, "/api/v1/challans",
		`{"audit_lines":[{"audit_id":"a1","rate":"100.50"}],"tax_type":"GST","inventory_mode":"record_only","discount_pct":5}`, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NotNil(t, uc.created)
	assert.Equal(t, "u1", uc.created.UserID)
	assert.Equal(t, auth.RoleAdmin, uc.created.Role)
	assert.Equal(t, "100.5", uc.created.AuditLines[0].Rate.String())
	assert.Equal(t, "5", uc.created.DiscountPct.String())

	var body model.Challan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "GST/25-26/001", body.Number)
}

func TestHandlerRequiresIdentity(t *testing.T) {
	uc := &stubUseCase{}
	w := do(newRouter(uc), http.MethodPost, "/api/v1/challans", `{}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, uc.created)
}

func TestHandlerMalformedBody(t *testing.T) {
	uc := &stubUseCase{}
	w := do(newRouter(uc), http.MethodPost, "/api/v1/challans", `{"audit_lines":`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, uc.created)
}

func TestHandlerErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{"validation", apperror.Validation("discount_pct", "must be between 0 and 100"), http.StatusBadRequest, "InvalidArgument"},
		{"not found", apperror.NotFound("challan", "x"), http.StatusNotFound, "NotFound"},
		{"consumed", &apperror.AlreadyConsumedError{IDs: []string{"a1"}}, http.StatusConflict, "AlreadyExists"},
		{"insufficient", &apperror.InsufficientStockError{BoxID: "b1", Color: "blue", Available: 1, Requested: 5}, http.StatusBadRequest, "FailedPrecondition"},
		{"conflict", apperror.Conflict("issue", context.DeadlineExceeded), http.StatusConflict, "Aborted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newRouter(&stubUseCase{err: tt.err}), http.MethodPost, "/api/v1/challans",
				`{"tax_type":"GST","inventory_mode":"dispatch"}`, true)
			assert.Equal(t, tt.code, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body["code"])
		})
	}
}

func TestCancelAndSearchRoutes(t *testing.T) {
	uc := &stubUseCase{}
	r := newRouter(uc)

	w := do(r, http.MethodPost, "/api/v1/challans/c9/cancel", `{"reason":"wrong client","restock":true}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c9", uc.cancelled.ChallanID)
	assert.Equal(t, "u1", uc.cancelled.UserID)
	assert.True(t, uc.cancelled.Restock)

	w = do(r, http.MethodGet, "/api/v1/challans/search?q=slice&page=2&page_size=500", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "slice", uc.search.Query)
	assert.Equal(t, 2, uc.search.Page)
	assert.Equal(t, 20, uc.search.PageSize)

	w = do(r, http.MethodGet, "/api/v1/challans/by-number?number=GST/25-26/001", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "GST/25-26/001")
}
