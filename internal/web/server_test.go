package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitos/option_ladder_bot/internal/domain"
	"github.com/vitos/option_ladder_bot/internal/usecase"
	"github.com/vitos/option_ladder_bot/internal/web"
)

// minimal in-memory repos for driving the handlers end to end

type stubStore struct {
	mu       sync.Mutex
	strategy *domain.Strategy
	levels   []*domain.Level
	nextID   int64
	token    string
}

func (s *stubStore) SaveStrategy(ctx context.Context, st *domain.Strategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategy = st
	return nil
}

func (s *stubStore) GetStrategy(ctx context.Context, id string) (*domain.Strategy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.strategy == nil || s.strategy.ID != id {
		return nil, nil
	}
	cp := *s.strategy
	return &cp, nil
}

func (s *stubStore) ListStrategies(ctx context.Context) ([]*domain.Strategy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.strategy == nil {
		return []*domain.Strategy{}, nil
	}
	cp := *s.strategy
	return []*domain.Strategy{&cp}, nil
}

func (s *stubStore) UpdateInstruments(ctx context.Context, id, main, hedge, dir string) error {
	return nil
}

func (s *stubStore) SetActive(ctx context.Context, id string, active bool) error { return nil }

func (s *stubStore) GetLevelsByStrategy(ctx context.Context, strategyID, instrument string) ([]*domain.Level, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Level, 0, len(s.levels))
	for _, l := range s.levels {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (s *stubStore) CreateLevels(ctx context.Context, levels []*domain.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range levels {
		s.nextID++
		l.ID = s.nextID
		cp := *l
		s.levels = append(s.levels, &cp)
	}
	return nil
}

func (s *stubStore) UpdateLevels(ctx context.Context, levels []*domain.Level) error { return nil }

func (s *stubStore) CreateOrder(ctx context.Context, o *domain.Order) error { return nil }
func (s *stubStore) UpdateOrder(ctx context.Context, o *domain.Order) error { return nil }
func (s *stubStore) FindByEntryOrderID(ctx context.Context, id string) (*domain.Order, error) {
	return nil, nil
}
func (s *stubStore) FindOpenOrder(ctx context.Context, levelID int64, isMain bool) (*domain.Order, error) {
	return nil, nil
}
func (s *stubStore) ListPendingOrders(ctx context.Context, strategyID string) ([]*domain.Order, error) {
	return nil, nil
}
func (s *stubStore) ListOrdersByStrategy(ctx context.Context, strategyID string) ([]*domain.Order, error) {
	return []*domain.Order{}, nil
}

func (s *stubStore) ActiveToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", domain.Errorf(domain.KindValidation, "tokens", "no active access token for today")
	}
	return s.token, nil
}

func (s *stubStore) SaveToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

type stubVenue struct{}

func (stubVenue) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResponse, error) {
	return &domain.OrderResponse{OrderID: "ord-1", Status: "ok"}, nil
}
func (stubVenue) CancelOrder(ctx context.Context, orderID string) error { return nil }
func (stubVenue) ExitAllPositions(ctx context.Context) error            { return nil }
func (stubVenue) GetQuote(ctx context.Context, symbols []string) (map[string]float64, error) {
	return nil, nil
}
func (stubVenue) GetOptionChain(ctx context.Context, index, expiry string, strikeCount int) (*domain.OptionChain, error) {
	return &domain.OptionChain{
		Index: index,
		Contracts: []domain.OptionContract{
			{Symbol: "NSE:NIFTY25SEP24900CE", StrikePrice: 24900, OptionType: "CE", LTP: 110},
			{Symbol: "NSE:NIFTY25SEP25000CE", StrikePrice: 25000, OptionType: "CE", LTP: 100},
			{Symbol: "NSE:NIFTY25SEP25100CE", StrikePrice: 25100, OptionType: "CE", LTP: 90},
			{Symbol: "NSE:NIFTY25SEP24900PE", StrikePrice: 24900, OptionType: "PE", LTP: 90},
			{Symbol: "NSE:NIFTY25SEP25000PE", StrikePrice: 25000, OptionType: "PE", LTP: 100},
			{Symbol: "NSE:NIFTY25SEP25100PE", StrikePrice: 25100, OptionType: "PE", LTP: 110},
		},
	}, nil
}
func (stubVenue) GetOrderTradedPrice(ctx context.Context, orderID string) (float64, error) {
	return 100, nil
}

type stubStream struct {
	updates chan domain.OrderUpdate
	fatal   chan error
}

func (s *stubStream) CheckAndStart() error               { return nil }
func (s *stubStream) Subscribe() error                   { return nil }
func (s *stubStream) Unsubscribe() error                 { return nil }
func (s *stubStream) Updates() <-chan domain.OrderUpdate { return s.updates }
func (s *stubStream) Fatal() <-chan error                { return s.fatal }
func (s *stubStream) Stop()                              {}

func newTestServer() (*web.Server, *stubStore) {
	store := &stubStore{token: "tok"}
	registry := usecase.NewRegistry(zap.NewNop())
	launcher := usecase.NewLauncher(store, store, store, store, registry,
		func(string) domain.Venue { return stubVenue{} },
		func(string) domain.OrderStream {
			return &stubStream{updates: make(chan domain.OrderUpdate, 1), fatal: make(chan error, 1)}
		},
		nil, zap.NewNop())
	return web.NewServer(0, launcher, zap.NewNop()), store
}

func doJSON(t *testing.T, srv *web.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func createBody() map[string]any {
	return map[string]any{
		"userId":          "user-1",
		"index":           "NSE:NIFTY50-INDEX",
		"strikeDirection": "call",
		"quantity":        1,
		"targetPct":       5,
		"template": map[string]any{"1": map[string]any{
			"main_percentage": 10, "main_target": 5, "main_quantity": 1,
		}},
	}
}

func TestServer_CreateListAndLevels(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv, http.MethodPost, "/api/strategies", createBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created domain.Strategy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "NSE:NIFTY25SEP25000CE", created.MainInstrument)

	rec = doJSON(t, srv, http.MethodGet, "/api/strategies", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Strategy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = doJSON(t, srv, http.MethodGet, "/api/strategies/"+created.ID+"/levels", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var levels []domain.Level
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &levels))
	assert.Len(t, levels, 2)
}

func TestServer_CreateRejectsBadBody(t *testing.T) {
	srv, _ := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/strategies", bytes.NewBufferString("{broken"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := createBody()
	body["quantity"] = 0
	rec = doJSON(t, srv, http.MethodPost, "/api/strategies", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_StartStatusStop(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv, http.MethodPost, "/api/strategies", createBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Strategy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, srv, http.MethodPost, "/api/strategies/"+created.ID+"/start", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/api/strategies/"+created.ID+"/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status usecase.StrategyStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.IsRunning)

	// a second start on the same id is rejected
	rec = doJSON(t, srv, http.MethodPost, "/api/strategies/"+created.ID+"/start", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/strategies/"+created.ID+"/stop", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_UnknownStrategyIsBadRequest(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv, http.MethodGet, "/api/strategies/missing/status", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_SaveToken(t *testing.T) {
	srv, store := newTestServer()

	rec := doJSON(t, srv, http.MethodPost, "/api/token", map[string]string{"token": "fresh"})
	require.Equal(t, http.StatusOK, rec.Code)

	store.mu.Lock()
	assert.Equal(t, "fresh", store.token)
	store.mu.Unlock()
}
