package payments

import (
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	billingdomain "membership-app-go/internal/domain/billing"
	membershipdomain "membership-app-go/internal/domain/membership"
	commonhandler "membership-app-go/internal/transport/httpserver/handler/common"
	membershandler "membership-app-go/internal/transport/httpserver/handler/members"
)

const (
	bulkComplete = "complete"
	bulkFail     = "fail"
)

type initiateRequest struct {
	MemberID    string  `json:"member_id"`
	PaymentType string  `json:"payment_type"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	PhoneNumber string  `json:"phone_number"`
	Description string  `json:"description"`
}

func (r initiateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MemberID, validation.Required, is.UUID),
		validation.Field(&r.PaymentType, validation.Required, validation.In(
			billingdomain.TypeRegistration, billingdomain.TypeRenewal, billingdomain.TypeLateFee,
		)),
		validation.Field(&r.Amount, validation.Required, validation.Min(0.01)),
		validation.Field(&r.Currency, validation.Length(3, 3)),
		validation.Field(&r.PhoneNumber, validation.Required, validation.Length(9, 16)),
		validation.Field(&r.Description, validation.Length(0, 1000)),
	)
}

type markPendingRequest struct {
	CheckoutRequestID string `json:"checkout_request_id"`
	MerchantRequestID string `json:"merchant_request_id"`
}

func (r markPendingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CheckoutRequestID, validation.Length(0, 100)),
		validation.Field(&r.MerchantRequestID, validation.Length(0, 100)),
	)
}

type completeRequest struct {
	MpesaReceiptNumber string `json:"mpesa_receipt_number"`
}

func (r completeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MpesaReceiptNumber, validation.Length(0, 50)),
	)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (r reasonRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Length(0, 1000)),
	)
}

type bulkActionRequest struct {
	Action string   `json:"action"`
	IDs    []string `json:"ids"`
	Reason string   `json:"reason"`
}

func (r bulkActionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Action, validation.Required, validation.In(bulkComplete, bulkFail)),
		validation.Field(&r.IDs, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.Reason, validation.Length(0, 1000)),
	)
}

type receiptResponse struct {
	ID            string `json:"id"`
	PaymentID     string `json:"payment_id"`
	ReceiptNumber string `json:"receipt_number"`
	GeneratedAt   string `json:"generated_at"`
	SentViaEmail  bool   `json:"sent_via_email"`
	SentViaSMS    bool   `json:"sent_via_sms"`
}

type completeResponse struct {
	Affected      int64                           `json:"affected"`
	Payment       *membershandler.PaymentResponse `json:"payment,omitempty"`
	Receipt       *receiptResponse                `json:"receipt,omitempty"`
	Renewed       bool                            `json:"renewed"`
	NewExpiryDate *string                         `json:"new_expiry_date,omitempty"`
}

func toReceiptResponse(receipt billingdomain.Receipt) receiptResponse {
	return receiptResponse{
		ID:            receipt.ID,
		PaymentID:     receipt.PaymentID,
		ReceiptNumber: receipt.ReceiptNumber,
		GeneratedAt:   receipt.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		SentViaEmail:  receipt.SentViaEmail,
		SentViaSMS:    receipt.SentViaSMS,
	}
}

func (h *Handlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset, err := commonhandler.Page(query.Get("limit"), query.Get("offset"), billingdomain.DefaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	items, total, err := h.Payments.List(r.Context(), billingdomain.ListFilter{
		MemberID: strings.TrimSpace(query.Get("member_id")),
		Status:   query.Get("status"),
		Type:     query.Get("payment_type"),
		Search:   query.Get("search"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "payments.list", err)
		return
	}

	response := make([]membershandler.PaymentResponse, 0, len(items))
	for _, item := range items {
		response = append(response, membershandler.ToPaymentViewResponse(item))
	}
	commonhandler.WriteList(w, response, total, limit, offset)
}

// ListOwnPayments returns the payments of the signed-in member.
func (h *Handlers) ListOwnPayments(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	member, err := h.Members.GetByUserID(r.Context(), user.ID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "payments.list_own", err, "user_id", user.ID)
		return
	}
	items, err := h.Payments.ListByMember(r.Context(), member.ID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "payments.list_own", err, "member_id", member.ID)
		return
	}

	response := make([]membershandler.PaymentResponse, 0, len(items))
	for _, item := range items {
		response = append(response, membershandler.ToPaymentViewResponse(item))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := paymentIDParam(w, r)
	if !ok {
		return
	}

	payment, err := h.Payments.Get(r.Context(), paymentID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "payments.get", err, "payment_id", paymentID)
		return
	}
	writeJSON(w, http.StatusOK, membershandler.ToPaymentResponse(*payment))
}

func (h *Handlers) GetReceipt(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := paymentIDParam(w, r)
	if !ok {
		return
	}

	receipt, err := h.Payments.GetReceipt(r.Context(), paymentID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "payments.receipt", err, "payment_id", paymentID)
		return
	}
	writeJSON(w, http.StatusOK, toReceiptResponse(*receipt))
}

func (h *Handlers) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req initiateRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	payment, err := h.Payments.Initiate(r.Context(), billingdomain.InitiateInput{
		MemberID:    req.MemberID,
		ActorID:     user.ID,
		Type:        req.PaymentType,
		Amount:      req.Amount,
		Currency:    req.Currency,
		PhoneNumber: req.PhoneNumber,
		Description: req.Description,
	})
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "payments.initiate", err, "member_id", req.MemberID, "actor_id", user.ID)
		return
	}

	h.Dashboard.Invalidate(r.Context())
	writeJSON(w, http.StatusCreated, membershandler.ToPaymentResponse(*payment))
}

func (h *Handlers) MarkPending(w http.ResponseWriter, r *http.Request) {
	var req markPendingRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}
	h.apply(w, r, "payments.mark_pending", func(paymentID, actorID string) (int64, error) {
		return h.Payments.MarkPending(r.Context(), billingdomain.MarkPendingInput{
			PaymentID:         paymentID,
			ActorID:           actorID,
			CheckoutRequestID: req.CheckoutRequestID,
			MerchantRequestID: req.MerchantRequestID,
		})
	})
}

// CompletePayment completes the payment, issues its receipt and completes
// the renewal waiting on it in one transaction.
func (h *Handlers) CompletePayment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	paymentID, ok := paymentIDParam(w, r)
	if !ok {
		return
	}

	var req completeRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.Members.CompletePayment(r.Context(), billingdomain.CompleteInput{
		PaymentID:          paymentID,
		ActorID:            user.ID,
		MpesaReceiptNumber: req.MpesaReceiptNumber,
	})
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "payments.complete", err, "payment_id", paymentID, "actor_id", user.ID)
		return
	}
	if result.Affected > 0 {
		h.Dashboard.Invalidate(r.Context())
	}
	writeJSON(w, http.StatusOK, toCompleteResponse(result))
}

func toCompleteResponse(result *membershipdomain.PaymentCompletion) completeResponse {
	response := completeResponse{Affected: result.Affected, Renewed: result.Renewal != nil}
	if result.Payment != nil {
		payment := membershandler.ToPaymentResponse(*result.Payment)
		response.Payment = &payment
	}
	if result.Receipt != nil {
		receipt := toReceiptResponse(*result.Receipt)
		response.Receipt = &receipt
	}
	if result.Renewal != nil {
		expiry := result.Renewal.NewExpiryDate.Format("2006-01-02")
		response.NewExpiryDate = &expiry
	}
	return response
}

func (h *Handlers) FailPayment(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}
	h.apply(w, r, "payments.fail", func(paymentID, actorID string) (int64, error) {
		return h.Payments.Fail(r.Context(), paymentID, actorID, req.Reason)
	})
}

func (h *Handlers) CancelPayment(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "payments.cancel", func(paymentID, actorID string) (int64, error) {
		return h.Payments.Cancel(r.Context(), paymentID, actorID)
	})
}

func (h *Handlers) RefundPayment(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}
	h.apply(w, r, "payments.refund", func(paymentID, actorID string) (int64, error) {
		return h.Payments.Refund(r.Context(), paymentID, actorID, req.Reason)
	})
}

func (h *Handlers) apply(w http.ResponseWriter, r *http.Request, operation string, action func(paymentID, actorID string) (int64, error)) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	paymentID, ok := paymentIDParam(w, r)
	if !ok {
		return
	}

	affected, err := action(paymentID, user.ID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, operation, err, "payment_id", paymentID, "actor_id", user.ID)
		return
	}
	if affected > 0 {
		h.Dashboard.Invalidate(r.Context())
	}
	commonhandler.WriteAffected(w, affected)
}

func (h *Handlers) BulkAction(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req bulkActionRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}
	ids := commonhandler.UniqueIDs(req.IDs)

	var (
		affected int64
		err      error
	)
	switch req.Action {
	case bulkComplete:
		affected, err = h.Members.CompletePaymentMany(r.Context(), ids, user.ID)
	case bulkFail:
		affected, err = h.Payments.FailMany(r.Context(), ids, user.ID, req.Reason)
	}
	if affected > 0 {
		h.Dashboard.Invalidate(r.Context())
	}
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "payments.bulk_"+req.Action, err, "actor_id", user.ID, "applied", affected)
		return
	}
	commonhandler.WriteAffected(w, affected)
}
