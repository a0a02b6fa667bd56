package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vitos/option_ladder_bot/internal/domain"
)

const (
	FyersBaseURL = "https://api-t1.fyers.in/api/v3"
)

// FyersAdapter implements domain.Venue against the Fyers v3 REST API. The
// adapter is token-scoped and stateless per call, safe for concurrent use
// across strategies.
type FyersAdapter struct {
	clientID    string
	accessToken string
	baseURL     string
	client      *http.Client
}

func NewFyersAdapter(clientID, accessToken, baseURL string) *FyersAdapter {
	if baseURL == "" {
		baseURL = FyersBaseURL
	}
	return &FyersAdapter{
		clientID:    clientID,
		accessToken: accessToken,
		baseURL:     baseURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *FyersAdapter) sendRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body []byte
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = jsonBody
	}

	req, err := http.NewRequestWithContext(ctx, method, f.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", fmt.Sprintf("%s:%s", f.clientID, f.accessToken))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, domain.E(domain.KindTransient, "venue.request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.E(domain.KindTransient, "venue.request", err)
	}

	if resp.StatusCode >= 500 {
		return nil, domain.Errorf(domain.KindTransient, "venue.request", "venue unavailable: %s", string(respBody))
	}
	if resp.StatusCode >= 400 {
		return nil, domain.Errorf(domain.KindVenueRejected, "venue.request", "API error: %s", string(respBody))
	}

	return respBody, nil
}

func (f *FyersAdapter) PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error) {
	resp, err := f.sendRequest(ctx, "POST", "/orders/sync", order)
	if err != nil {
		return nil, err
	}

	var result struct {
		S       string `json:"s"`
		Code    int    `json:"code"`
		Message string `json:"message"`
		ID      string `json:"id"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, domain.E(domain.KindVenueRejected, "venue.PlaceOrder", err)
	}

	if result.S != "ok" {
		return nil, domain.Errorf(domain.KindVenueRejected, "venue.PlaceOrder", "order rejected: %s", result.Message)
	}

	return &domain.OrderResponse{OrderID: result.ID, Status: result.S, Message: result.Message}, nil
}

func (f *FyersAdapter) CancelOrder(ctx context.Context, orderID string) error {
	payload := map[string]string{"id": orderID}
	resp, err := f.sendRequest(ctx, "DELETE", "/orders/sync", payload)
	if err != nil {
		return err
	}

	var result struct {
		S       string `json:"s"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return domain.E(domain.KindVenueRejected, "venue.CancelOrder", err)
	}
	if result.S != "ok" {
		return domain.Errorf(domain.KindVenueRejected, "venue.CancelOrder", "cancel rejected: %s", result.Message)
	}
	return nil
}

func (f *FyersAdapter) ExitAllPositions(ctx context.Context) error {
	resp, err := f.sendRequest(ctx, "DELETE", "/positions", map[string]any{})
	if err != nil {
		return err
	}

	var result struct {
		S       string `json:"s"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return domain.E(domain.KindVenueRejected, "venue.ExitAllPositions", err)
	}
	// "no open positions" comes back as an error status, that is fine here
	if result.S != "ok" && !strings.Contains(strings.ToLower(result.Message), "no open") {
		return domain.Errorf(domain.KindVenueRejected, "venue.ExitAllPositions", "exit rejected: %s", result.Message)
	}
	return nil
}

func (f *FyersAdapter) GetQuote(ctx context.Context, symbols []string) (map[string]float64, error) {
	path := "/data/quotes?symbols=" + url.QueryEscape(strings.Join(symbols, ","))
	resp, err := f.sendRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		S string `json:"s"`
		D []struct {
			N string `json:"n"`
			V struct {
				LP float64 `json:"lp"`
			} `json:"v"`
		} `json:"d"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, domain.E(domain.KindVenueRejected, "venue.GetQuote", err)
	}
	if result.S != "ok" {
		return nil, domain.Errorf(domain.KindVenueRejected, "venue.GetQuote", "quote request failed")
	}

	quotes := make(map[string]float64, len(result.D))
	for _, d := range result.D {
		quotes[d.N] = d.V.LP
	}
	return quotes, nil
}

func (f *FyersAdapter) GetOptionChain(ctx context.Context, index, expiry string, strikeCount int) (*domain.OptionChain, error) {
	path := fmt.Sprintf("/data/options-chain-v3?symbol=%s&strikecount=%d", url.QueryEscape(index), strikeCount)

	chain, err := f.fetchChain(ctx, path)
	if err != nil {
		return nil, err
	}

	// A named expiry needs a second call with the venue's timestamp for it.
	if expiry != "" {
		ts, ok := chain.ExpiryDate[expiry]
		if !ok {
			return nil, domain.Errorf(domain.KindValidation, "venue.GetOptionChain", "expiry %q not offered for %s", expiry, index)
		}
		chain, err = f.fetchChain(ctx, path+"&timestamp="+url.QueryEscape(ts))
		if err != nil {
			return nil, err
		}
	}

	chain.Index = index
	chain.Expiry = expiry
	return chain, nil
}

func (f *FyersAdapter) fetchChain(ctx context.Context, path string) (*domain.OptionChain, error) {
	resp, err := f.sendRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		S    string `json:"s"`
		Data struct {
			ExpiryData []struct {
				Date   string `json:"date"`
				Expiry string `json:"expiry"`
			} `json:"expiryData"`
			OptionsChain []domain.OptionContract `json:"optionsChain"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, domain.E(domain.KindVenueRejected, "venue.GetOptionChain", err)
	}
	if result.S != "ok" {
		return nil, domain.Errorf(domain.KindVenueRejected, "venue.GetOptionChain", "chain request failed")
	}

	chain := &domain.OptionChain{
		Contracts:  result.Data.OptionsChain,
		ExpiryDate: make(map[string]string, len(result.Data.ExpiryData)),
	}
	for _, e := range result.Data.ExpiryData {
		chain.ExpiryDate[e.Date] = e.Expiry
	}
	return chain, nil
}

func (f *FyersAdapter) GetOrderTradedPrice(ctx context.Context, orderID string) (float64, error) {
	resp, err := f.sendRequest(ctx, "GET", "/orders?id="+url.QueryEscape(orderID), nil)
	if err != nil {
		return 0, err
	}

	var result struct {
		S         string `json:"s"`
		OrderBook []struct {
			ID          string  `json:"id"`
			TradedPrice float64 `json:"tradedPrice"`
		} `json:"orderBook"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return 0, domain.E(domain.KindVenueRejected, "venue.GetOrderTradedPrice", err)
	}
	if result.S != "ok" || len(result.OrderBook) == 0 {
		return 0, domain.Errorf(domain.KindVenueRejected, "venue.GetOrderTradedPrice", "order %s not found", orderID)
	}
	return result.OrderBook[0].TradedPrice, nil
}
