package service

import (
	"context"
	"encoding/json"
	"errors"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockEvent is the websocket payload broadcast after stock-changing
// operations commit.
type StockEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

const (
	EventStockChanged = "stock_changed"
	EventLowStock     = "low_stock"
)

// parseUUID validates an id string from the boundary.
func parseUUID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperror.Newf(apperror.KindValidation, "invalid %s: %q", field, value)
	}
	return id, nil
}

// parseOptionalUUID returns nil for an empty string.
func parseOptionalUUID(field, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := parseUUID(field, value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// firstNonEmpty lets a request body override the authenticated user id.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// notFoundOr maps gorm.ErrRecordNotFound to a NotFound error, everything
// else to Internal.
func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.New(apperror.KindNotFound, message)
	}
	return apperror.Wrap(err, apperror.KindInternal, message)
}

// checkDuplicateLines rejects documents listing the same product+variant
// pair twice; edits and voids match ledger rows by reference and would
// otherwise double-apply.
func checkDuplicateLines(pairs [][2]uuid.UUID) error {
	seen := make(map[[2]uuid.UUID]bool, len(pairs))
	for _, p := range pairs {
		if seen[p] {
			return apperror.Newf(apperror.KindValidation, "duplicate line item for variant %s", p[1])
		}
		seen[p] = true
	}
	return nil
}

// writeAudit records an in-transaction audit entry. Marshal failures are
// ignored; the details column is best-effort.
func writeAudit(ctx context.Context, repo repository.AuditRepository, userID *uuid.UUID, action, entityID, entityName string, details interface{}) error {
	payload, _ := json.Marshal(details)
	return repo.Log(ctx, &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	})
}

// broadcastStock pushes a stock event to connected clients, plus a low-stock
// alert when the product dropped to or below its minimum. Safe to call with
// a nil hub (tests).
func broadcastStock(hub *ws.Hub, product *model.Product, stockAfter decimal.Decimal) {
	if hub == nil {
		return
	}
	send := func(event string) {
		payload, err := json.Marshal(StockEvent{
			Event: event,
			Data: map[string]interface{}{
				"product_id": product.ID.String(),
				"sku":        product.SKU,
				"name":       product.Name,
				"stock":      stockAfter.String(),
				"min_stock":  product.MinStock.String(),
			},
		})
		if err != nil {
			return
		}
		select {
		case hub.Broadcast <- payload:
		default:
		}
	}
	send(EventStockChanged)
	if product.MinStock.IsPositive() && stockAfter.LessThanOrEqual(product.MinStock) {
		send(EventLowStock)
	}
}
