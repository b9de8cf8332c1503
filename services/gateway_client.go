package services

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"resort-backend/config"
)

// OrderPayload is what we hand to the gateway when opening a payment. The
// AdditionalInfo slots are display-only on the gateway's hosted page and are
// never trusted for reconciliation.
type OrderPayload struct {
	MerchantID     string            `json:"merchant_id"`
	OrderID        string            `json:"order_id"` // == bookingId
	Amount         string            `json:"amount"`   // formatted to 2 decimals
	Currency       string            `json:"currency"`
	OrderTimestamp string            `json:"order_ts"` // ISO8601 with offset
	RedirectURL    string            `json:"redirect_url"`
	TraceID        string            `json:"trace_id"`
	ClientIP       string            `json:"client_ip,omitempty"`
	UserAgent      string            `json:"user_agent,omitempty"`
	AdditionalInfo map[string]string `json:"additional_info,omitempty"`
}

// CallbackFields is the decrypted content of a gateway callback.
type CallbackFields struct {
	OrderID      string `json:"order_id"`
	TrackingID   string `json:"tracking_id"` // gateway transaction id
	BankRefNo    string `json:"bank_ref_no"`
	AuthStatus   string `json:"auth_status"`
	Amount       string `json:"amount"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// OrderResult is the gateway's answer to order creation. All four fields the
// client-side form needs come out of here plus the configured submit URL.
type OrderResult struct {
	GatewayOrderID string
	ResponseData   string
}

// PaymentGateway is the cryptographic collaborator boundary. The concrete
// client talks to the real gateway; tests plug in a stub.
type PaymentGateway interface {
	// EncryptAndSign encrypts the payload with the working key, then signs
	// the ciphertext with the separate signing key.
	EncryptAndSign(payload *OrderPayload) (encrypted string, signature string, err error)
	// Verify checks the signature over an inbound encrypted blob. Payloads
	// that fail verification must never be decrypted.
	Verify(encrypted string, signature string) bool
	// Decrypt opens a verified inbound blob.
	Decrypt(encrypted string) (*CallbackFields, error)
	// CreateOrder transmits the signed envelope and returns the gateway
	// order id and the response-data blob for form submission.
	CreateOrder(ctx context.Context, encrypted, signature, traceID string, timestampMillis int64) (*OrderResult, error)
}

// GatewayClient implements PaymentGateway against an HTTP gateway using
// AES-256-GCM for confidentiality and HMAC-SHA256 for authenticity, keyed by
// two distinct secrets plus the access-code client identifier.
type GatewayClient struct {
	cfg    config.GatewayConfig
	client *http.Client
}

func NewGatewayClient(cfg config.GatewayConfig) *GatewayClient {
	return &GatewayClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// derive stretches an arbitrary-length secret into a 32-byte AES key.
func derive(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

func (g *GatewayClient) EncryptAndSign(payload *OrderPayload) (string, string, error) {
	plain, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("marshal order payload: %w", err)
	}

	block, err := aes.NewCipher(derive(g.cfg.WorkingKey))
	if err != nil {
		return "", "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", "", err
	}
	sealed := gcm.Seal(nonce, nonce, plain, []byte(g.cfg.AccessCode))
	encrypted := hex.EncodeToString(sealed)

	return encrypted, g.sign(encrypted), nil
}

func (g *GatewayClient) sign(encrypted string) string {
	mac := hmac.New(sha256.New, []byte(g.cfg.SigningKey))
	mac.Write([]byte(g.cfg.AccessCode))
	mac.Write([]byte(encrypted))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *GatewayClient) Verify(encrypted, signature string) bool {
	want, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(g.sign(encrypted))
	if err != nil {
		return false
	}
	return hmac.Equal(want, got)
}

func (g *GatewayClient) Decrypt(encrypted string) (*CallbackFields, error) {
	sealed, err := hex.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("decode callback blob: %w", err)
	}

	block, err := aes.NewCipher(derive(g.cfg.WorkingKey))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("callback blob too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, []byte(g.cfg.AccessCode))
	if err != nil {
		return nil, fmt.Errorf("decrypt callback: %w", err)
	}

	var fields CallbackFields
	if err := json.Unmarshal(plain, &fields); err != nil {
		return nil, fmt.Errorf("parse callback fields: %w", err)
	}
	return &fields, nil
}

// DecryptOrder opens one of our own outbound envelopes. Used by tests and by
// the audit tooling to read back EncryptedRequest.
func (g *GatewayClient) DecryptOrder(encrypted string) (*OrderPayload, error) {
	sealed, err := hex.DecodeString(encrypted)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(derive(g.cfg.WorkingKey))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("envelope too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, []byte(g.cfg.AccessCode))
	if err != nil {
		return nil, err
	}
	var payload OrderPayload
	if err := json.Unmarshal(plain, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Encrypt seals arbitrary callback fields. The test stub uses the same
// primitives, so the round-trip property is checked against this client.
func (g *GatewayClient) Encrypt(fields *CallbackFields) (string, string, error) {
	plain, err := json.Marshal(fields)
	if err != nil {
		return "", "", err
	}
	block, err := aes.NewCipher(derive(g.cfg.WorkingKey))
	if err != nil {
		return "", "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", "", err
	}
	sealed := gcm.Seal(nonce, nonce, plain, []byte(g.cfg.AccessCode))
	encrypted := hex.EncodeToString(sealed)
	return encrypted, g.sign(encrypted), nil
}

// orderResponse is the gateway's JSON answer to order creation.
type orderResponse struct {
	Status  string `json:"status"`
	OrderID string `json:"order_id"`
	EncResp string `json:"enc_response"`
	Error   string `json:"error,omitempty"`
}

func (g *GatewayClient) CreateOrder(ctx context.Context, encrypted, signature, traceID string, timestampMillis int64) (*OrderResult, error) {
	form := url.Values{}
	form.Set("access_code", g.cfg.AccessCode)
	form.Set("enc_request", encrypted)
	form.Set("signature", signature)
	form.Set("trace_id", traceID)
	form.Set("timestamp", fmt.Sprintf("%d", timestampMillis))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.OrderURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, &IntegrationError{Op: "create_order", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &IntegrationError{Op: "create_order", Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &IntegrationError{Op: "create_order", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed orderResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &IntegrationError{Op: "create_order", StatusCode: resp.StatusCode, Body: string(body), Err: err}
	}
	if parsed.Status != "ok" || parsed.OrderID == "" || parsed.EncResp == "" {
		return nil, &IntegrationError{Op: "create_order", StatusCode: resp.StatusCode, Body: string(body)}
	}

	return &OrderResult{GatewayOrderID: parsed.OrderID, ResponseData: parsed.EncResp}, nil
}
