package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cricketxpert/checkout-service/internal/api/handlers"
	appErrors "github.com/cricketxpert/checkout-service/internal/errors"
	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/cricketxpert/checkout-service/internal/services/mocks"
	"github.com/cricketxpert/checkout-service/internal/testutils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetProduct(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name         string
		id           string
		setupMock    func(m *mocks.MockProductService)
		expectedCode int
		expectedErr  string
	}{
		{
			name: "Success",
			id:   productID.String(),
			setupMock: func(m *mocks.MockProductService) {
				m.On("GetProductByID", mock.Anything, productID).
					Return(&models.Product{ID: productID, Name: "Cricket Bat", Price: decimal.NewFromInt(1500), StockQuantity: 3}, nil).Once()
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "Failure - Invalid ID",
			id:           "not-a-uuid",
			setupMock:    func(m *mocks.MockProductService) {},
			expectedCode: http.StatusBadRequest,
			expectedErr:  appErrors.ErrCodeBadRequest,
		},
		{
			name: "Failure - Not Found",
			id:   productID.String(),
			setupMock: func(m *mocks.MockProductService) {
				m.On("GetProductByID", mock.Anything, productID).Return(nil, appErrors.NotFoundError("Product not found")).Once()
			},
			expectedCode: http.StatusNotFound,
			expectedErr:  appErrors.ErrCodeNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			productService := mocks.NewMockProductService(t)
			tc.setupMock(productService)
			handler := handlers.NewProductHandler(productService)

			req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/products/"+tc.id, nil, uuid.New(), map[string]string{"id": tc.id})
			rr := httptest.NewRecorder()

			// Act
			handler.GetProduct().ServeHTTP(rr, req)

			// Assert
			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedErr != "" {
				assert.Equal(t, tc.expectedErr, errorCode(t, rr))
				return
			}

			var product models.Product
			decodeData(t, rr, &product)
			assert.Equal(t, productID, product.ID)
			assert.True(t, product.Price.Equal(decimal.NewFromInt(1500)))
		})
	}
}

func TestListProducts(t *testing.T) {
	t.Run("Success - Filters Passed Through", func(t *testing.T) {
		// Arrange
		productService := mocks.NewMockProductService(t)
		handler := handlers.NewProductHandler(productService)

		products := []*models.Product{{ID: uuid.New(), Name: "Cricket Ball"}}
		productService.On("ListProducts", mock.Anything, &models.ProductFilter{CategoryID: 2, Search: "ball", Page: 2, Size: 5}).
			Return(products, 6, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/products?page=2&pageSize=5&categoryId=2&search=ball", nil, uuid.New(), nil)
		rr := httptest.NewRecorder()

		// Act
		handler.ListProducts().ServeHTTP(rr, req)

		// Assert
		require.Equal(t, http.StatusOK, rr.Code)

		var page struct {
			Data       []models.Product `json:"data"`
			Total      int              `json:"total"`
			Page       int              `json:"page"`
			PageSize   int              `json:"pageSize"`
			TotalPages int              `json:"totalPages"`
		}
		decodeData(t, rr, &page)
		assert.Len(t, page.Data, 1)
		assert.Equal(t, 6, page.Total)
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, 5, page.PageSize)
		assert.Equal(t, 2, page.TotalPages)
	})

	t.Run("Failure - Invalid Category", func(t *testing.T) {
		productService := mocks.NewMockProductService(t)
		handler := handlers.NewProductHandler(productService)

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/products?categoryId=bats", nil, uuid.New(), nil)
		rr := httptest.NewRecorder()

		handler.ListProducts().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		productService.AssertNotCalled(t, "ListProducts", mock.Anything, mock.Anything)
	})

	t.Run("Failure - Service Error", func(t *testing.T) {
		productService := mocks.NewMockProductService(t)
		handler := handlers.NewProductHandler(productService)

		productService.On("ListProducts", mock.Anything, mock.Anything).Return(nil, 0, appErrors.DatabaseError("Failed to fetch products")).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/products", nil, uuid.New(), nil)
		rr := httptest.NewRecorder()

		handler.ListProducts().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, appErrors.ErrCodeDatabaseError, errorCode(t, rr))
	})
}
