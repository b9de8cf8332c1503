package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"resort-backend/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WebhookService is the audit sink for server-to-server gateway calls. It
// persists every raw payload unconditionally and performs no business
// mutation itself: the gateway may deliver before, after, or instead of the
// browser redirect, so nothing here assumes reservation state.
type WebhookService struct {
	DB *gorm.DB
}

func NewWebhookService(db *gorm.DB) *WebhookService {
	return &WebhookService{DB: db}
}

// Record persists one inbound call and returns the acknowledgement id.
// Only the insert itself can fail; extraction is best-effort.
func (s *WebhookService) Record(ctx context.Context, source string, headers map[string][]string, query url.Values, body []byte) (*models.WebhookEvent, error) {
	headerJSON, _ := json.Marshal(headers)

	event := &models.WebhookEvent{
		AckID:   uuid.New().String(),
		Source:  source,
		Headers: datatypes.JSON(headerJSON),
		Query:   query.Encode(),
		Body:    string(body),
	}

	extractFields(event, query, body)

	if err := s.DB.WithContext(ctx).Create(event).Error; err != nil {
		return nil, fmt.Errorf("failed to persist webhook audit record: %w", err)
	}
	return event, nil
}

// extractFields scrapes order/transaction identifiers out of whatever shape
// the payload took: JSON, form-encoded, or raw text. Misses are fine.
func extractFields(event *models.WebhookEvent, query url.Values, body []byte) {
	fields := map[string]string{}

	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err == nil {
		for k, v := range parsed {
			if s, ok := v.(string); ok {
				fields[strings.ToLower(k)] = s
			} else if v != nil {
				fields[strings.ToLower(k)] = fmt.Sprintf("%v", v)
			}
		}
	} else if form, err := url.ParseQuery(string(body)); err == nil {
		for k := range form {
			fields[strings.ToLower(k)] = form.Get(k)
		}
	}
	for k := range query {
		if _, exists := fields[strings.ToLower(k)]; !exists {
			fields[strings.ToLower(k)] = query.Get(k)
		}
	}

	first := func(keys ...string) string {
		for _, k := range keys {
			if v := fields[k]; v != "" {
				return v
			}
		}
		return ""
	}

	event.OrderID = first("order_id", "orderid", "orderno")
	event.TransactionID = first("tracking_id", "transaction_id", "txn_id", "trackingid")
	event.Status = first("auth_status", "order_status", "status")
	event.Amount = first("amount", "order_amt", "mer_amount")
}
