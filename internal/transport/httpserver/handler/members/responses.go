package members

import (
	"time"

	billingdomain "membership-app-go/internal/domain/billing"
	membershipdomain "membership-app-go/internal/domain/membership"
)

type memberResponse struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	MembershipID     string     `json:"membership_id"`
	CategoryID       string     `json:"category_id"`
	CategoryName     string     `json:"category_name,omitempty"`
	CountryID        string     `json:"country_id"`
	CountryName      string     `json:"country_name,omitempty"`
	RegionID         *string    `json:"region_id,omitempty"`
	RegionName       string     `json:"region_name,omitempty"`
	FirstName        string     `json:"first_name"`
	MiddleName       string     `json:"middle_name,omitempty"`
	LastName         string     `json:"last_name"`
	FullName         string     `json:"full_name"`
	DateOfBirth      string     `json:"date_of_birth"`
	Gender           string     `json:"gender"`
	NationalID       string     `json:"national_id"`
	Email            string     `json:"email"`
	PhoneNumber      string     `json:"phone_number"`
	AlternativePhone string     `json:"alternative_phone,omitempty"`
	PostalAddress    string     `json:"postal_address,omitempty"`
	PhysicalAddress  string     `json:"physical_address"`
	Occupation       string     `json:"occupation,omitempty"`
	Organization     string     `json:"organization,omitempty"`
	Status           string     `json:"status"`
	EffectiveStatus  string     `json:"effective_status"`
	IsActive         bool       `json:"is_active"`
	RegistrationDate time.Time  `json:"registration_date"`
	ApprovalDate     *time.Time `json:"approval_date,omitempty"`
	ExpiryDate       *string    `json:"expiry_date,omitempty"`
	DaysUntilExpiry  *int       `json:"days_until_expiry,omitempty"`
	RejectionReason  string     `json:"rejection_reason,omitempty"`
}

type memberListResponse struct {
	Items  []memberResponse `json:"items"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type renewalResponse struct {
	ID                 string     `json:"id"`
	MemberID           string     `json:"member_id"`
	PaymentID          *string    `json:"payment_id,omitempty"`
	PreviousExpiryDate string     `json:"previous_expiry_date"`
	NewExpiryDate      string     `json:"new_expiry_date"`
	RenewalFee         float64    `json:"renewal_fee"`
	Status             string     `json:"status"`
	InitiatedAt        time.Time  `json:"initiated_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	Notes              string     `json:"notes,omitempty"`
}

type certificateResponse struct {
	ID                string `json:"id"`
	MemberID          string `json:"member_id"`
	CertificateNumber string `json:"certificate_number"`
	IssueDate         string `json:"issue_date"`
	ValidUntil        string `json:"valid_until"`
	IsActive          bool   `json:"is_active"`
}

type documentResponse struct {
	ID          string    `json:"id"`
	MemberID    string    `json:"member_id"`
	Type        string    `json:"document_type"`
	FilePath    string    `json:"file_path"`
	Description string    `json:"description,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
	IsVerified  bool      `json:"is_verified"`
}

// PaymentResponse is shared with the payments handlers.
type PaymentResponse struct {
	ID                 string     `json:"id"`
	MemberID           string     `json:"member_id"`
	MembershipID       string     `json:"membership_id,omitempty"`
	MemberName         string     `json:"member_name,omitempty"`
	Reference          string     `json:"payment_reference"`
	Type               string     `json:"payment_type"`
	Amount             float64    `json:"amount"`
	Currency           string     `json:"currency"`
	PhoneNumber        string     `json:"phone_number"`
	MpesaReceiptNumber string     `json:"mpesa_receipt_number,omitempty"`
	Status             string     `json:"status"`
	InitiatedAt        time.Time  `json:"initiated_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	RefundedAt         *time.Time `json:"refunded_at,omitempty"`
	Description        string     `json:"description,omitempty"`
	FailureReason      string     `json:"failure_reason,omitempty"`
}

type renewalStartedResponse struct {
	Renewal renewalResponse `json:"renewal"`
	Payment PaymentResponse `json:"payment"`
}

func formatDate(value time.Time) string {
	return value.Format("2006-01-02")
}

func toMemberResponse(member membershipdomain.Member, now time.Time) memberResponse {
	response := memberResponse{
		ID:               member.ID,
		UserID:           member.UserID,
		MembershipID:     member.MembershipID,
		CategoryID:       member.CategoryID,
		CountryID:        member.CountryID,
		RegionID:         member.RegionID,
		FirstName:        member.FirstName,
		MiddleName:       member.MiddleName,
		LastName:         member.LastName,
		FullName:         member.FullName(),
		DateOfBirth:      formatDate(member.DateOfBirth),
		Gender:           member.Gender,
		NationalID:       member.NationalID,
		Email:            member.Email,
		PhoneNumber:      member.PhoneNumber,
		AlternativePhone: member.AlternativePhone,
		PostalAddress:    member.PostalAddress,
		PhysicalAddress:  member.PhysicalAddress,
		Occupation:       member.Occupation,
		Organization:     member.Organization,
		Status:           member.Status,
		EffectiveStatus:  member.EffectiveStatus(now),
		IsActive:         member.IsActive(now),
		RegistrationDate: member.RegistrationDate,
		ApprovalDate:     member.ApprovalDate,
		RejectionReason:  member.RejectionReason,
	}
	if member.ExpiryDate != nil {
		expiry := formatDate(*member.ExpiryDate)
		response.ExpiryDate = &expiry
	}
	if days, ok := member.DaysUntilExpiry(now); ok {
		response.DaysUntilExpiry = &days
	}
	return response
}

func toMemberViewResponse(view membershipdomain.MemberView, now time.Time) memberResponse {
	response := toMemberResponse(view.Member, now)
	response.CategoryName = view.CategoryName
	response.CountryName = view.CountryName
	response.RegionName = view.RegionName
	return response
}

func toRenewalResponse(renewal membershipdomain.Renewal) renewalResponse {
	return renewalResponse{
		ID:                 renewal.ID,
		MemberID:           renewal.MemberID,
		PaymentID:          renewal.PaymentID,
		PreviousExpiryDate: formatDate(renewal.PreviousExpiryDate),
		NewExpiryDate:      formatDate(renewal.NewExpiryDate),
		RenewalFee:         renewal.RenewalFee,
		Status:             renewal.Status,
		InitiatedAt:        renewal.InitiatedAt,
		CompletedAt:        renewal.CompletedAt,
		Notes:              renewal.Notes,
	}
}

func toCertificateResponse(certificate membershipdomain.Certificate) certificateResponse {
	return certificateResponse{
		ID:                certificate.ID,
		MemberID:          certificate.MemberID,
		CertificateNumber: certificate.CertificateNumber,
		IssueDate:         formatDate(certificate.IssueDate),
		ValidUntil:        formatDate(certificate.ValidUntil),
		IsActive:          certificate.IsActive,
	}
}

func toDocumentResponse(document membershipdomain.Document) documentResponse {
	return documentResponse{
		ID:          document.ID,
		MemberID:    document.MemberID,
		Type:        document.Type,
		FilePath:    document.FilePath,
		Description: document.Description,
		UploadedAt:  document.UploadedAt,
		IsVerified:  document.IsVerified,
	}
}

func ToPaymentResponse(payment billingdomain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                 payment.ID,
		MemberID:           payment.MemberID,
		Reference:          payment.Reference,
		Type:               payment.Type,
		Amount:             payment.Amount,
		Currency:           payment.Currency,
		PhoneNumber:        payment.PhoneNumber,
		MpesaReceiptNumber: payment.MpesaReceiptNumber,
		Status:             payment.Status,
		InitiatedAt:        payment.InitiatedAt,
		CompletedAt:        payment.CompletedAt,
		RefundedAt:         payment.RefundedAt,
		Description:        payment.Description,
		FailureReason:      payment.FailureReason,
	}
}

func ToPaymentViewResponse(view billingdomain.PaymentView) PaymentResponse {
	response := ToPaymentResponse(view.Payment)
	response.MembershipID = view.MembershipID
	response.MemberName = view.MemberName
	return response
}
