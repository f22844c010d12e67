package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend-gold/advisor"
	"backend-gold/database"
	"backend-gold/handlers"
	"backend-gold/ledger"
	"backend-gold/models"
	"backend-gold/pricing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func setupRouter(t *testing.T, opts handlers.Options) *gin.Engine {
	t.Helper()
	db, err := database.ConnectDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return routerWith(ledger.NewStore(db), opts)
}

func routerWith(l handlers.Ledger, opts handlers.Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handlers.NewHandler(l, pricing.NewOracle(6500), advisor.NewClassifier(nil, nil), opts)
	h.Register(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	r := setupRouter(t, handlers.Options{})

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, "ok", body["status"])
	_, err := time.Parse(time.RFC3339Nano, body["timestamp"])
	require.NoError(t, err)
}

func TestPriceIsStable(t *testing.T) {
	r := setupRouter(t, handlers.Options{})

	for i := 0; i < 3; i++ {
		w := doJSON(t, r, http.MethodGet, "/price", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode[map[string]any](t, w)
		assert.Equal(t, 6500.0, body["price_per_gram_inr"])
		assert.Equal(t, "fixed_env_or_default", body["source"])
	}
}

func TestPurchaseByAmount(t *testing.T) {
	r := setupRouter(t, handlers.Options{})

	w := doJSON(t, r, http.MethodPost, "/purchase", map[string]any{"user_id": 1, "amount_in_inr": 1000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	receipt := decode[handlers.PurchaseReceipt](t, w)
	assert.True(t, receipt.Success)
	assert.Equal(t, uint(1), receipt.UserID)
	assert.Equal(t, 0.1538, receipt.Grams)
	assert.Equal(t, 999.7, receipt.InrAmount)
	assert.Equal(t, 6500.0, receipt.PricePerGram)
	assert.Equal(t, models.ProviderDigitalGold, receipt.Provider)
	assert.Len(t, receipt.TxnID, 36)
	_, err := time.Parse(time.RFC3339Nano, receipt.CreatedAt)
	require.NoError(t, err)

	list := decode[[]handlers.PurchaseItem](t, doJSON(t, r, http.MethodGet, "/purchases/1", nil))
	require.Len(t, list, 1)
	assert.Equal(t, receipt.TxnID, list[0].TxnID)
	assert.Equal(t, models.StatusSuccess, list[0].Status)
}

func TestPurchaseByGrams(t *testing.T) {
	r := setupRouter(t, handlers.Options{})

	w := doJSON(t, r, http.MethodPost, "/purchase", map[string]any{"user_id": 3, "grams": 0.5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	receipt := decode[handlers.PurchaseReceipt](t, w)
	assert.Equal(t, 0.5, receipt.Grams)
	assert.Equal(t, 3250.0, receipt.InrAmount)
}

func TestPurchaseAmountWinsOverGrams(t *testing.T) {
	r := setupRouter(t, handlers.Options{})

	w := doJSON(t, r, http.MethodPost, "/purchase", map[string]any{"user_id": 3, "amount_in_inr": 6500, "grams": 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode[handlers.PurchaseReceipt](t, w).Grams)
}

func TestPurchaseValidation(t *testing.T) {
	r := setupRouter(t, handlers.Options{})

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "neither amount nor grams", body: map[string]any{"user_id": 2}},
		{name: "missing user_id", body: map[string]any{"amount_in_inr": 100}},
		{name: "amount below one", body: map[string]any{"user_id": 2, "amount_in_inr": 0.5}},
		{name: "grams below minimum", body: map[string]any{"user_id": 2, "grams": 0.001}},
		{name: "negative user_id", body: map[string]any{"user_id": -1, "grams": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/purchase", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode[map[string]string](t, w)["error"])
		})
	}

	w := doJSON(t, r, http.MethodPost, "/purchase", map[string]any{"user_id": 2})
	assert.Equal(t, "Provide either amount_in_inr or grams", decode[map[string]string](t, w)["error"])

	list := decode[[]handlers.PurchaseItem](t, doJSON(t, r, http.MethodGet, "/purchases/2", nil))
	assert.Empty(t, list)
}

func TestPurchaseTxnIDsAreUnique(t *testing.T) {
	r := setupRouter(t, handlers.Options{})

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		w := doJSON(t, r, http.MethodPost, "/purchase", map[string]any{"user_id": 7, "amount_in_inr": 100 + i})
		require.Equal(t, http.StatusOK, w.Code)
		id := decode[handlers.PurchaseReceipt](t, w).TxnID
		require.False(t, seen[id], "duplicate txn id %s", id)
		seen[id] = true
	}
}

func TestPurchaseRoundTrip(t *testing.T) {
	r := setupRouter(t, handlers.Options{})

	for _, grams := range []float64{0.01, 0.1538, 1.2345, 3} {
		w := doJSON(t, r, http.MethodPost, "/purchase", map[string]any{"user_id": 8, "amount_in_inr": grams * 6500})
		require.Equal(t, http.StatusOK, w.Code)
		assert.InDelta(t, grams, decode[handlers.PurchaseReceipt](t, w).Grams, 0.0001)
	}
}

func TestPurchaseRequireExistingUser(t *testing.T) {
	r := setupRouter(t, handlers.Options{RequireExistingUser: true})

	w := doJSON(t, r, http.MethodPost, "/purchase", map[string]any{"user_id": 50, "grams": 1})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, "/users", map[string]any{"name": "Ravi"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[struct {
		Data models.User `json:"data"`
	}](t, w)
	require.NotZero(t, created.Data.ID)

	w = doJSON(t, r, http.MethodPost, "/purchase", map[string]any{"user_id": created.Data.ID, "grams": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestListPurchasesOrderAndEmpty(t *testing.T) {
	r := setupRouter(t, handlers.Options{})

	w := doJSON(t, r, http.MethodGet, "/purchases/999", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	var txns []string
	for _, g := range []float64{1, 2, 3} {
		w := doJSON(t, r, http.MethodPost, "/purchase", map[string]any{"user_id": 4, "grams": g})
		require.Equal(t, http.StatusOK, w.Code)
		txns = append(txns, decode[handlers.PurchaseReceipt](t, w).TxnID)
	}

	list := decode[[]handlers.PurchaseItem](t, doJSON(t, r, http.MethodGet, "/purchases/4", nil))
	require.Len(t, list, 3)
	assert.Equal(t, []string{txns[2], txns[1], txns[0]}, []string{list[0].TxnID, list[1].TxnID, list[2].TxnID})
	assert.Equal(t, 3.0, list[0].Grams)

	w = doJSON(t, r, http.MethodGet, "/purchases/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdvisorPriceQuestion(t *testing.T) {
	r := setupRouter(t, handlers.Options{})

	w := doJSON(t, r, http.MethodPost, "/advisor", map[string]any{"message": "tell me about gold price"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[handlers.AdvisorResponse](t, w)
	assert.True(t, resp.IsGoldRelated)
	assert.True(t, resp.SuggestPurchase)
	assert.False(t, resp.RedirectToPurchase)
	assert.Contains(t, resp.Response, "Indicative price: ₹6500 per gram.")
	assert.Contains(t, resp.Response, advisor.Nudge)
	assert.Nil(t, resp.NextAction)
	assert.Nil(t, resp.UserID)
}

func TestAdvisorBuyIntent(t *testing.T) {
	r := setupRouter(t, handlers.Options{})

	w := doJSON(t, r, http.MethodPost, "/advisor", map[string]any{"message": "I want to buy gold now"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[handlers.AdvisorResponse](t, w)
	assert.True(t, resp.IsGoldRelated)
	assert.True(t, resp.RedirectToPurchase)
	require.NotNil(t, resp.NextAction)
	assert.Equal(t, "/purchase", resp.NextAction.Endpoint)
	assert.Equal(t, "<your_user_id>", resp.NextAction.ExpectedBody["user_id"])
}

func TestAdvisorOffTopic(t *testing.T) {
	r := setupRouter(t, handlers.Options{})

	w := doJSON(t, r, http.MethodPost, "/advisor", map[string]any{"message": "how do I file taxes"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[handlers.AdvisorResponse](t, w)
	assert.False(t, resp.IsGoldRelated)
	assert.False(t, resp.SuggestPurchase)
	assert.Equal(t, advisor.OffTopicResponse, resp.Response)

	raw := decode[map[string]any](t, w)
	assert.Contains(t, raw, "next_action")
	assert.Nil(t, raw["next_action"])
}

func TestAdvisorUserResolution(t *testing.T) {
	r := setupRouter(t, handlers.Options{})

	// explicit id that does not exist yet
	w := doJSON(t, r, http.MethodPost, "/advisor", map[string]any{"message": "gold?", "user_id": 321})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[handlers.AdvisorResponse](t, w)
	require.NotNil(t, resp.UserID)
	assert.Equal(t, uint(321), *resp.UserID)
	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, "/users/321", nil).Code)

	// profile fields only
	w = doJSON(t, r, http.MethodPost, "/advisor", map[string]any{"message": "yes buy gold", "email": "a@b.in"})
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[handlers.AdvisorResponse](t, w)
	require.NotNil(t, resp.UserID)
	assert.NotEqual(t, uint(321), *resp.UserID)
	require.NotNil(t, resp.NextAction)
	assert.Equal(t, float64(*resp.UserID), resp.NextAction.ExpectedBody["user_id"])
}

func TestAdvisorRequiresMessage(t *testing.T) {
	r := setupRouter(t, handlers.Options{})

	w := doJSON(t, r, http.MethodPost, "/advisor", map[string]any{"user_id": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUserHoldings(t *testing.T) {
	r := setupRouter(t, handlers.Options{})

	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/users/12", nil).Code)

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/purchase", map[string]any{"user_id": 12, "grams": 0.25}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/purchase", map[string]any{"user_id": 12, "grams": 0.75}).Code)

	w := doJSON(t, r, http.MethodGet, "/users/12", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		User     models.User     `json:"user"`
		Holdings ledger.Holdings `json:"holdings"`
	}](t, w)
	assert.Equal(t, uint(12), body.User.ID)
	assert.Equal(t, int64(2), body.Holdings.Purchases)
	assert.Equal(t, 1.0, body.Holdings.TotalGrams)
	assert.Equal(t, 6500.0, body.Holdings.TotalInr)
}

func TestExportPurchases(t *testing.T) {
	r := setupRouter(t, handlers.Options{})

	w := doJSON(t, r, http.MethodPost, "/purchase", map[string]any{"user_id": 6, "grams": 2})
	require.Equal(t, http.StatusOK, w.Code)
	txn := decode[handlers.PurchaseReceipt](t, w).TxnID

	w = doJSON(t, r, http.MethodGet, "/purchases/6/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "gold_purchases_6_")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Gold Purchases", "D1")
	require.NoError(t, err)
	assert.Equal(t, "Txn ID", header)

	got, err := f.GetCellValue("Gold Purchases", "D2")
	require.NoError(t, err)
	assert.Equal(t, txn, got)

	total, err := f.GetCellValue("Gold Purchases", "F3")
	require.NoError(t, err)
	assert.Equal(t, "13000", total)
}

type brokenLedger struct{ handlers.Ledger }

var errStorage = errors.New("disk I/O error")

func (brokenLedger) RecordPurchase(context.Context, uint, pricing.Quote, bool) (models.Purchase, error) {
	return models.Purchase{}, errStorage
}

func (brokenLedger) ListPurchases(context.Context, uint) ([]models.Purchase, error) {
	return nil, errStorage
}

func TestStorageErrorsAre500(t *testing.T) {
	r := routerWith(brokenLedger{}, handlers.Options{})

	w := doJSON(t, r, http.MethodPost, "/purchase", map[string]any{"user_id": 1, "grams": 1})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = doJSON(t, r, http.MethodGet, "/purchases/1", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, errStorage.Error(), decode[map[string]string](t, w)["error"])
}

func TestPurchaseRejectsZeroUserID(t *testing.T) {
	r := setupRouter(t, handlers.Options{})

	w := doJSON(t, r, http.MethodPost, "/purchase", map[string]any{"user_id": 0, "grams": 1})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	list := decode[[]handlers.PurchaseItem](t, doJSON(t, r, http.MethodGet, "/purchases/0", nil))
	assert.Empty(t, list)
	// no user was created on the side either
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/users/1", nil).Code)
}

func TestAdvisorZeroUserIDCreatesNobody(t *testing.T) {
	r := setupRouter(t, handlers.Options{})

	w := doJSON(t, r, http.MethodPost, "/advisor", map[string]any{
		"message": "buy gold",
		"user_id": 0,
		"email":   "zero@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[handlers.AdvisorResponse](t, w)
	assert.Nil(t, resp.UserID)
	require.NotNil(t, resp.NextAction)
	assert.Equal(t, "<your_user_id>", resp.NextAction.ExpectedBody["user_id"])
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/users/1", nil).Code)
}

// failingWriter accepts headers but fails every body write.
type failingWriter struct {
	header http.Header
	codes  []int
	bodies [][]byte
}

func (w *failingWriter) Header() http.Header { return w.header }

func (w *failingWriter) WriteHeader(code int) { w.codes = append(w.codes, code) }

func (w *failingWriter) Write(b []byte) (int, error) {
	w.bodies = append(w.bodies, append([]byte(nil), b...))
	return 0, errors.New("broken pipe")
}

func TestExportWriteFailureSendsNoErrorBody(t *testing.T) {
	r := setupRouter(t, handlers.Options{})
	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/purchase", map[string]any{"user_id": 6, "grams": 1}).Code)

	w := &failingWriter{header: http.Header{}}
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/purchases/6/export", nil))

	require.Equal(t, []int{http.StatusOK}, w.codes)
	for _, b := range w.bodies {
		assert.False(t, bytes.HasPrefix(b, []byte(`{"error"`)), string(b))
	}
}
