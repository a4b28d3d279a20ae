package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oms-backend/order-management/config"
)

// SteadfastConfig holds the courier API credentials.
type SteadfastConfig struct {
	BaseURL   string
	APIKey    string
	SecretKey string
}

// SteadfastService is the HTTP client for the Steadfast courier API.
// The provider signals success with status code 200 inside the JSON
// body; every other code is a failure whose message we surface as-is.
type SteadfastService struct {
	config     *SteadfastConfig
	httpClient *http.Client
}

// NewSteadfastService builds a client with explicit configuration.
func NewSteadfastService(cfg *SteadfastConfig) *SteadfastService {
	return &SteadfastService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewSteadfastServiceFromEnv builds a client from environment variables.
func NewSteadfastServiceFromEnv() *SteadfastService {
	return NewSteadfastService(&SteadfastConfig{
		BaseURL:   config.GetEnv("STEADFAST_BASE_URL", "https://portal.packzy.com/api/v1"),
		APIKey:    config.GetEnv("STEADFAST_API_KEY", ""),
		SecretKey: config.GetEnv("STEADFAST_SECRET_KEY", ""),
	})
}

// SteadfastOrderRequest is the create_order payload.
type SteadfastOrderRequest struct {
	Invoice          string  `json:"invoice"`
	RecipientName    string  `json:"recipient_name"`
	RecipientPhone   string  `json:"recipient_phone"`
	RecipientAddress string  `json:"recipient_address"`
	CodAmount        float64 `json:"cod_amount"`
	Note             string  `json:"note,omitempty"`
	AlternativePhone string  `json:"alternative_phone,omitempty"`
	RecipientEmail   string  `json:"recipient_email,omitempty"`
	ItemDescription  string  `json:"item_description,omitempty"`
	TotalLot         int     `json:"total_lot,omitempty"`
	// 0 = home delivery, 1 = point delivery
	DeliveryType int `json:"delivery_type"`
}

type SteadfastOrderResponse struct {
	Status      int                   `json:"status"`
	Message     string                `json:"message"`
	Consignment *SteadfastConsignment `json:"consignment,omitempty"`
}

type SteadfastConsignment struct {
	ConsignmentID    int64   `json:"consignment_id"`
	Invoice          string  `json:"invoice"`
	TrackingCode     string  `json:"tracking_code"`
	RecipientName    string  `json:"recipient_name"`
	RecipientPhone   string  `json:"recipient_phone"`
	RecipientAddress string  `json:"recipient_address"`
	CodAmount        float64 `json:"cod_amount"`
	Status           string  `json:"status"`
	Note             string  `json:"note,omitempty"`
}

type SteadfastStatusResponse struct {
	Status         int    `json:"status"`
	DeliveryStatus string `json:"delivery_status"`
}

type SteadfastBalanceResponse struct {
	Status         int     `json:"status"`
	CurrentBalance float64 `json:"current_balance"`
}

// CreateOrder submits one shipment to the courier.
func (ss *SteadfastService) CreateOrder(request *SteadfastOrderRequest) (*SteadfastOrderResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshal courier request: %w", err)
	}

	var response SteadfastOrderResponse
	if err := ss.do(http.MethodPost, "/create_order", body, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// CheckDeliveryStatus fetches the current delivery status by tracking code.
func (ss *SteadfastService) CheckDeliveryStatus(trackingCode string) (*SteadfastStatusResponse, error) {
	var response SteadfastStatusResponse
	if err := ss.do(http.MethodGet, "/status_by_trackingcode/"+trackingCode, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetCurrentBalance returns the courier account balance.
func (ss *SteadfastService) GetCurrentBalance() (*SteadfastBalanceResponse, error) {
	var response SteadfastBalanceResponse
	if err := ss.do(http.MethodGet, "/get_balance", nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (ss *SteadfastService) do(method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewBuffer(body)
	}

	req, err := http.NewRequest(method, ss.config.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build courier request: %w", err)
	}
	req.Header.Set("Api-Key", ss.config.APIKey)
	req.Header.Set("Secret-Key", ss.config.SecretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ss.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("courier request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read courier response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ProviderError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode courier response: %w", err)
	}
	return nil
}
