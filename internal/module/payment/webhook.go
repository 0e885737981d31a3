package payment

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/vestire/server/internal/module/order"
	"github.com/vestire/server/internal/module/payment/domain"
	"github.com/vestire/server/internal/module/payment/provider"
	apperrors "github.com/vestire/server/internal/shared/errors"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Webhook results recorded in metrics.
const (
	resultProcessed         = "processed"
	resultDuplicate         = "duplicate"
	resultIgnored           = "ignored"
	resultInvalid           = "invalid"
	resultRejectedAuth      = "rejected_auth"
	resultRejectedIntegrity = "rejected_integrity"
	resultFailed            = "failed"
)

// outcome is the result of processing one callback after authentication.
type outcome struct {
	resp     *WebhookResponse
	status   EventStatus
	verified bool
	orderID  string
	err      error
}

// --- Card/bank callbacks ---

// HandleXenditWebhook authenticates and applies a card/bank invoice callback.
// Only authentication failures return an error; everything after that is
// acknowledged with a response body so the provider stops retrying.
func (s *Service) HandleXenditWebhook(ctx context.Context, token string, body []byte) (*WebhookResponse, error) {
	var claim provider.XenditCallback
	_ = json.Unmarshal(body, &claim)
	event := &WebhookEvent{
		Provider:      provider.NameXendit,
		OrderID:       claim.ExternalID,
		InvoiceID:     claim.ID,
		ClaimedStatus: claim.Status,
	}

	if !s.tokenMatches(token) {
		err := apperrors.Authentication("invalid callback token")
		s.logger.Warn("xendit webhook rejected", zap.String("reason", "token mismatch"))
		s.recordRejected(ctx, event, err)
		s.metrics.RecordWebhook(provider.NameXendit, resultRejectedAuth)
		return nil, err
	}

	event.Payload = payloadJSON(body)
	event = s.recordEvent(ctx, event)
	out := s.processXendit(ctx, body)
	s.finishEvent(ctx, event, out)
	return out.resp, nil
}

func (s *Service) tokenMatches(token string) bool {
	if s.cfg.XenditWebhookToken == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.XenditWebhookToken)) == 1
}

// processXendit applies an authenticated card/bank callback.
func (s *Service) processXendit(ctx context.Context, body []byte) *outcome {
	var cb provider.XenditCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return s.xenditInvalid(apperrors.Validation("invalid callback payload"))
	}
	var missing []string
	if strings.TrimSpace(cb.ExternalID) == "" {
		missing = append(missing, "external_id")
	}
	if strings.TrimSpace(cb.Status) == "" {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return s.xenditInvalid(apperrors.Validation("", missing...))
	}

	update := s.xenditUpdate(cb.ID, cb.Status, cb.PaidAmount, cb.Amount.Decimal, cb.Currency, cb.PaidAt)
	res, err := s.orders.ApplyPaymentUpdate(ctx, cb.ExternalID, update)

	out := &outcome{verified: true, orderID: cb.ExternalID}
	switch {
	case errors.Is(err, order.ErrTerminalState), errors.Is(err, order.ErrStaleReference):
		s.logger.Warn("xendit webhook not applied",
			zap.String("order_id", cb.ExternalID),
			zap.String("invoice_id", cb.ID),
			zap.String("provider_status", cb.Status),
			zap.Error(err),
		)
		s.metrics.RecordWebhook(provider.NameXendit, resultIgnored)
		out.status = EventStatusIgnored
		out.err = err
		out.resp = guardResponse(cb.ExternalID, res, err)
		return out
	case errors.Is(err, order.ErrOrderNotFound):
		s.logger.Warn("xendit webhook for unknown order",
			zap.String("order_id", cb.ExternalID),
			zap.String("invoice_id", cb.ID),
		)
		s.metrics.RecordWebhook(provider.NameXendit, resultFailed)
		out.status = EventStatusFailed
		out.err = err
		out.resp = &WebhookResponse{Success: false, OrderID: cb.ExternalID, Error: "order not found"}
		return out
	case err != nil:
		s.logger.Error("xendit webhook update failed",
			zap.String("order_id", cb.ExternalID),
			zap.Error(err),
		)
		s.metrics.RecordWebhook(provider.NameXendit, resultFailed)
		out.status = EventStatusFailed
		out.err = err
		out.resp = &WebhookResponse{Success: false, OrderID: cb.ExternalID, Error: "failed to update order"}
		return out
	}

	s.recordApplied(provider.NameXendit, res)
	out.status = EventStatusProcessed
	out.resp = &WebhookResponse{
		Success:       true,
		OrderID:       cb.ExternalID,
		PaymentStatus: res.Order.PaymentStatus,
		OrderStatus:   res.Order.Status,
	}
	return out
}

func (s *Service) xenditInvalid(err error) *outcome {
	s.logger.Warn("xendit webhook invalid", zap.Error(err))
	s.metrics.RecordWebhook(provider.NameXendit, resultInvalid)
	return &outcome{
		status:   EventStatusRejected,
		verified: true,
		err:      err,
		resp:     &WebhookResponse{Success: false, Error: err.Error()},
	}
}

// --- Crypto callbacks ---

// HandleNOWPaymentsWebhook verifies a crypto IPN callback against the
// provider's own record before applying it.
func (s *Service) HandleNOWPaymentsWebhook(ctx context.Context, signature string, body []byte) (*WebhookResponse, error) {
	var cb provider.NOWPaymentsCallback
	parseErr := json.Unmarshal(body, &cb)
	event := &WebhookEvent{
		Provider:      provider.NameNOWPayments,
		OrderID:       cb.OrderID,
		InvoiceID:     cb.InvoiceID.String(),
		PaymentID:     cb.PaymentID.String(),
		ClaimedStatus: cb.PaymentStatus,
	}

	if s.cfg.NOWPaymentsIPNSecret != "" {
		if err := provider.VerifyIPNSignature(body, signature, s.cfg.NOWPaymentsIPNSecret); err != nil {
			s.logger.Warn("nowpayments webhook rejected",
				zap.String("order_id", cb.OrderID),
				zap.Error(err),
			)
			s.recordRejected(ctx, event, err)
			s.metrics.RecordWebhook(provider.NameNOWPayments, resultRejectedAuth)
			return nil, err
		}
	}

	event.Payload = payloadJSON(body)
	event = s.recordEvent(ctx, event)
	if err := validateCryptoCallback(&cb, parseErr); err != nil {
		s.logger.Warn("nowpayments webhook invalid", zap.Error(err))
		s.finishEvent(ctx, event, &outcome{status: EventStatusRejected, err: err})
		s.metrics.RecordWebhook(provider.NameNOWPayments, resultInvalid)
		return nil, err
	}

	out := s.reconcileCrypto(ctx, &cb)
	s.finishEvent(ctx, event, out)
	if out.resp == nil {
		return nil, out.err
	}
	return out.resp, nil
}

func validateCryptoCallback(cb *provider.NOWPaymentsCallback, parseErr error) error {
	if parseErr != nil {
		return apperrors.Validation("invalid callback payload")
	}
	var missing []string
	if cb.InvoiceID.Empty() {
		missing = append(missing, "invoice_id")
	}
	if strings.TrimSpace(cb.OrderID) == "" {
		missing = append(missing, "order_id")
	}
	if len(missing) > 0 {
		return apperrors.Validation("", missing...)
	}
	return nil
}

// reconcileCrypto re-reads the payment from the provider, cross-checks the
// callback claims against it and applies the verified status. The callback's
// own status is never trusted.
func (s *Service) reconcileCrypto(ctx context.Context, cb *provider.NOWPaymentsCallback) *outcome {
	out := &outcome{orderID: cb.OrderID}
	fail := func(status EventStatus, result string, err error) *outcome {
		s.metrics.RecordWebhook(provider.NameNOWPayments, result)
		out.status = status
		out.err = err
		return out
	}

	if !s.crypto.Configured() {
		return fail(EventStatusFailed, resultFailed, apperrors.Configuration("NOWPayments API key is not configured"))
	}

	// payment_id names the exact payment; an invoice can carry several attempts.
	lookupID := cb.PaymentID.String()
	if lookupID == "" {
		lookupID = cb.InvoiceID.String()
	}
	p, err := s.crypto.GetPayment(ctx, lookupID)
	if err != nil {
		s.logger.Error("nowpayments verification read failed",
			zap.String("order_id", cb.OrderID),
			zap.String("payment_id", lookupID),
			zap.Error(err),
		)
		if !apperrors.HasCode(err, apperrors.CodeConfiguration) {
			err = apperrors.Provider(provider.NameNOWPayments, 0, "verification read failed", err)
		}
		return fail(EventStatusFailed, resultFailed, err)
	}

	if mismatched := crossCheck(cb, p); len(mismatched) > 0 {
		s.logger.Warn("nowpayments webhook does not match provider record",
			zap.String("order_id", cb.OrderID),
			zap.Strings("mismatched", mismatched),
		)
		return fail(EventStatusRejected, resultRejectedIntegrity,
			apperrors.Integrity("callback does not match provider record", mismatched...))
	}
	out.verified = true

	mapped := domain.MapNOWPaymentsStatus(p.PaymentStatus)
	if !mapped.Known {
		s.logger.Warn("unmapped crypto provider status, order left unchanged",
			zap.String("order_id", cb.OrderID),
			zap.String("provider_status", p.PaymentStatus),
		)
		s.metrics.RecordUnknownStatus(provider.NameNOWPayments, p.PaymentStatus)
		s.metrics.RecordWebhook(provider.NameNOWPayments, resultIgnored)
		out.status = EventStatusIgnored
		out.resp = &WebhookResponse{Success: true, OrderID: cb.OrderID, Ignored: true, Reason: "unknown status"}
		return out
	}

	res, err := s.orders.ApplyPaymentUpdate(ctx, cb.OrderID, s.cryptoUpdate(cb, p, mapped))
	switch {
	case errors.Is(err, order.ErrTerminalState), errors.Is(err, order.ErrStaleReference):
		s.logger.Warn("nowpayments webhook not applied",
			zap.String("order_id", cb.OrderID),
			zap.String("provider_status", p.PaymentStatus),
			zap.Error(err),
		)
		s.metrics.RecordWebhook(provider.NameNOWPayments, resultIgnored)
		out.status = EventStatusIgnored
		out.err = err
		out.resp = guardResponse(cb.OrderID, res, err)
		return out
	case errors.Is(err, order.ErrOrderNotFound):
		s.logger.Warn("nowpayments webhook for unknown order", zap.String("order_id", cb.OrderID))
		return fail(EventStatusFailed, resultFailed, apperrors.NotFound("order"))
	case err != nil:
		s.logger.Error("nowpayments webhook update failed", zap.String("order_id", cb.OrderID), zap.Error(err))
		return fail(EventStatusFailed, resultFailed, apperrors.Internal("failed to update order", err))
	}

	s.recordApplied(provider.NameNOWPayments, res)
	out.status = EventStatusProcessed
	out.resp = &WebhookResponse{
		Success:       true,
		OrderID:       cb.OrderID,
		PaymentStatus: res.Order.PaymentStatus,
		OrderStatus:   res.Order.Status,
	}
	return out
}

// crossCheck lists the callback claims that disagree with the provider record.
func crossCheck(cb *provider.NOWPaymentsCallback, p *provider.NOWPaymentsPayment) []string {
	var mismatched []string
	if p.OrderID != cb.OrderID {
		mismatched = append(mismatched, "order_id")
	}
	if !cb.PriceAmount.Valid || !cb.PriceAmount.Decimal.Equal(p.PriceAmount) {
		mismatched = append(mismatched, "price_amount")
	}
	if !strings.EqualFold(cb.PriceCurrency, p.PriceCurrency) {
		mismatched = append(mismatched, "price_currency")
	}
	if !p.InvoiceID.Empty() && p.InvoiceID.String() != cb.InvoiceID.String() {
		mismatched = append(mismatched, "invoice_id")
	}
	return mismatched
}

func (s *Service) cryptoUpdate(cb *provider.NOWPaymentsCallback, p *provider.NOWPaymentsPayment, mapped domain.Outcome) *order.PaymentUpdate {
	invoiceID := p.InvoiceID.String()
	if invoiceID == "" {
		invoiceID = cb.InvoiceID.String()
	}
	now := s.now().UTC()
	priceAmount := p.PriceAmount

	details := &order.PaymentDetails{
		Provider:       provider.NameNOWPayments,
		InvoiceID:      invoiceID,
		ProviderStatus: p.PaymentStatus,
		PriceAmount:    &priceAmount,
		PriceCurrency:  p.PriceCurrency,
		PayCurrency:    p.PayCurrency,
		LastUpdated:    now,
	}
	if p.PayAmount.Valid {
		details.PayAmount = &p.PayAmount.Decimal
	}
	if p.ActuallyPaid.Valid {
		details.PaidAmount = &p.ActuallyPaid.Decimal
	}

	update := &order.PaymentUpdate{
		Provider:       provider.NameNOWPayments,
		InvoiceID:      invoiceID,
		PaymentStatus:  mapped.PaymentStatus,
		Status:         mapped.OrderStatus,
		PaymentMethod:  order.PaymentMethodCrypto,
		ProviderStatus: p.PaymentStatus,
		PaidAmount:     p.ActuallyPaid,
		PaidCurrency:   p.PayCurrency,
		Details:        details,
		UpdatedAt:      now,
	}
	if mapped.Settles() {
		update.PaymentCompletedAt = &now
	}
	return update
}

// --- Shared helpers ---

// guardResponse acknowledges a callback the terminal or reference guard
// refused, reporting the order's current state.
func guardResponse(orderID string, res *order.ApplyResult, err error) *WebhookResponse {
	resp := &WebhookResponse{Success: true, OrderID: orderID, Ignored: true, Reason: err.Error()}
	if res != nil && res.Order != nil {
		resp.PaymentStatus = res.Order.PaymentStatus
		resp.OrderStatus = res.Order.Status
	}
	return resp
}

func (s *Service) recordApplied(name string, res *order.ApplyResult) {
	if !res.Applied {
		s.logger.Info("duplicate webhook delivery",
			zap.String("provider", name),
			zap.String("order_id", res.Order.ID),
			zap.String("payment_status", string(res.Order.PaymentStatus)),
		)
		s.metrics.RecordWebhook(name, resultDuplicate)
		return
	}
	s.metrics.RecordWebhook(name, resultProcessed)
	s.metrics.RecordPaymentTransition(name, string(res.Order.PaymentStatus))
}

// payloadJSON stores non-JSON bodies as a JSON string.
func payloadJSON(body []byte) datatypes.JSON {
	if json.Valid(body) {
		return datatypes.JSON(body)
	}
	b, _ := json.Marshal(string(body))
	return datatypes.JSON(b)
}

// recordRejected stores an unauthenticated callback as metadata only. The
// body is not kept.
func (s *Service) recordRejected(ctx context.Context, event *WebhookEvent, err error) {
	event.Payload = datatypes.JSON("null")
	event.Status = EventStatusRejected
	event.Error = err.Error()
	s.recordEvent(ctx, event)
}

func (s *Service) recordEvent(ctx context.Context, event *WebhookEvent) *WebhookEvent {
	event.OrderID = clip(event.OrderID, 64)
	event.InvoiceID = clip(event.InvoiceID, 128)
	event.PaymentID = clip(event.PaymentID, 128)
	event.ClaimedStatus = clip(event.ClaimedStatus, 64)
	if err := s.events.CreateWebhookEvent(ctx, event); err != nil {
		s.logger.Error("failed to record webhook event",
			zap.String("provider", event.Provider),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
		return nil
	}
	return event
}

// clip bounds a claimed value to its column width.
func clip(v string, n int) string {
	if len(v) <= n {
		return v
	}
	return strings.ToValidUTF8(v[:n], "")
}

func (s *Service) finishEvent(ctx context.Context, event *WebhookEvent, out *outcome) {
	if event == nil {
		return
	}
	err := s.events.FinishWebhookEvent(ctx, event.ID, EventOutcome{
		Status:   out.status,
		Verified: out.verified,
		OrderID:  out.orderID,
		Err:      out.err,
	})
	if err != nil {
		s.logger.Error("failed to finish webhook event", zap.String("event_id", event.ID.String()), zap.Error(err))
	}
}

// --- Audit trail ---

// ListWebhookEvents returns stored webhook events.
func (s *Service) ListWebhookEvents(ctx context.Context, filter *EventFilter, pagination *order.Pagination) ([]*WebhookEvent, int64, error) {
	return s.events.ListWebhookEvents(ctx, filter, pagination)
}

// ReplayWebhookEvent re-processes a failed event from its stored payload.
// Authentication is not repeated; crypto events are verified against the
// provider again.
func (s *Service) ReplayWebhookEvent(ctx context.Context, id uuid.UUID) (*WebhookEvent, *WebhookResponse, error) {
	event, err := s.events.GetWebhookEvent(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !event.Status.Replayable() {
		return nil, nil, ErrEventNotReplayable
	}
	if err := s.events.IncrementReplayCount(ctx, id); err != nil {
		return nil, nil, err
	}

	var out *outcome
	switch event.Provider {
	case provider.NameXendit:
		out = s.processXendit(ctx, event.Payload)
	case provider.NameNOWPayments:
		var cb provider.NOWPaymentsCallback
		if err := validateCryptoCallback(&cb, json.Unmarshal(event.Payload, &cb)); err != nil {
			out = &outcome{status: EventStatusRejected, err: err}
		} else {
			out = s.reconcileCrypto(ctx, &cb)
		}
	default:
		return nil, nil, apperrors.BadRequest("unsupported provider " + event.Provider)
	}

	s.logger.Info("webhook event replayed",
		zap.String("event_id", id.String()),
		zap.String("provider", event.Provider),
		zap.String("status", string(out.status)),
	)
	s.finishEvent(ctx, event, out)

	updated, err := s.events.GetWebhookEvent(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	resp := out.resp
	if resp == nil {
		resp = &WebhookResponse{Success: false, OrderID: out.orderID}
		if out.err != nil {
			resp.Error = out.err.Error()
		}
	}
	return updated, resp, nil
}
