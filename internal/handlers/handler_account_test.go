package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/handlers"
	"github.com/SscSPs/splitledger/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AccountHandlerTestSuite struct {
	suite.Suite
	router         *gin.Engine
	accountService *MockAccountService
	token          string
}

func (suite *AccountHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.accountService = new(MockAccountService)
	suite.token = generateTestToken("A")

	v1 := suite.router.Group("/api/v1", middleware.AuthMiddleware(testJWTSecret))
	handlers.RegisterAccountRoutes(v1, suite.accountService)
}

func (suite *AccountHandlerTestSuite) TearDownTest() {
	suite.accountService.AssertExpectations(suite.T())
}

func TestAccountHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AccountHandlerTestSuite))
}

func (suite *AccountHandlerTestSuite) request(method, url, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.token)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *AccountHandlerTestSuite) TestGetAccount_CreditCardShowsAvailableCredit() {
	card := &domain.Account{
		AccountID:         "card-a",
		OwnerID:           "A",
		Name:              "Visa",
		Kind:              domain.CreditCard,
		CurrencyCode:      "INR",
		CreditLimit:       decimal.NewFromInt(1000),
		CurrentCreditUsed: decimal.NewFromInt(300),
		IsActive:          true,
	}
	suite.accountService.On("GetAccount", mock.Anything, "card-a", "A").Return(card, nil).Once()

	w := suite.request(http.MethodGet, "/api/v1/accounts/card-a", "")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.AccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(domain.CreditCard, resp.Kind)
	suite.True(decimal.NewFromInt(700).Equal(resp.AvailableCredit))
}

func (suite *AccountHandlerTestSuite) TestGetAccount_OtherOwnerIsNotFound() {
	suite.accountService.On("GetAccount", mock.Anything, "cash-b", "A").
		Return(nil, apperrors.NewNotFoundError("account cash-b")).Once()

	w := suite.request(http.MethodGet, "/api/v1/accounts/cash-b", "")

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *AccountHandlerTestSuite) TestListAccountEntries_PassesPaging() {
	token := "t1"
	suite.accountService.On("ListAccountEntries", mock.Anything, "cash-a", "A",
		dto.ListAccountEntriesParams{Limit: 10, NextToken: &token},
	).Return(&dto.ListAccountEntriesResponse{Entries: []dto.AccountEntryResponse{}}, nil).Once()

	w := suite.request(http.MethodGet, "/api/v1/accounts/cash-a/entries?limit=10&nextToken=t1", "")
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/v1/accounts/cash-a/entries?limit=0", "")
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *AccountHandlerTestSuite) TestRepayCreditCard_InvalidBodies() {
	tests := []struct {
		name string
		body string
	}{
		{"negative amount", `{"sourceAccountID":"cash-a","amount":"-5"}`},
		{"zero amount", `{"sourceAccountID":"cash-a","amount":"0"}`},
		{"missing source", `{"amount":"5"}`},
		{"malformed json", `{"sourceAccountID":`},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.request(http.MethodPost, "/api/v1/accounts/card-a/repay", tt.body)
			suite.Equal(http.StatusBadRequest, w.Code, w.Body.String())

			var resp dto.ErrorResponse
			suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
			suite.Equal(handlers.CodeValidation, resp.Code)
		})
	}
	suite.accountService.AssertNotCalled(suite.T(), "RepayCreditCard", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountHandlerTestSuite) TestRepayCreditCard_FullPayoffWithoutAmount() {
	repayment := &domain.CardRepayment{
		Card:   domain.Account{AccountID: "card-a", OwnerID: "A", Kind: domain.CreditCard, CreditLimit: decimal.NewFromInt(1000)},
		Source: domain.Account{AccountID: "cash-a", OwnerID: "A", Kind: domain.Cash, Balance: decimal.NewFromInt(200)},
		Amount: decimal.NewFromInt(300),
	}
	suite.accountService.On("RepayCreditCard", mock.Anything, "card-a", "A",
		mock.MatchedBy(func(r dto.RepayCreditCardRequest) bool {
			return r.SourceAccountID == "cash-a" && r.Amount == nil
		}),
	).Return(repayment, nil).Once()

	w := suite.request(http.MethodPost, "/api/v1/accounts/card-a/repay", `{"sourceAccountID":"cash-a"}`)

	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.CardRepaymentResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.True(decimal.NewFromInt(300).Equal(resp.Amount))
	suite.True(decimal.NewFromInt(1000).Equal(resp.Card.AvailableCredit))
}

func (suite *AccountHandlerTestSuite) TestRepayCreditCard_WrongKind() {
	suite.accountService.On("RepayCreditCard", mock.Anything, "cash-a", "A", mock.Anything).
		Return(nil, apperrors.NewValidationError("account cash-a is not a credit card")).Once()

	w := suite.request(http.MethodPost, "/api/v1/accounts/cash-a/repay", `{"sourceAccountID":"bank-a","amount":"10"}`)

	suite.Equal(http.StatusBadRequest, w.Code)
}
