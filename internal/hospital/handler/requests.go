package handler

import (
	"time"

	"bloodlink/internal/hospital"
	hospservice "bloodlink/internal/hospital/service"
	"bloodlink/internal/identity"
)

type bulkResultsRequest struct {
	EventID      string            `json:"event_id" validate:"required,uuid"`
	DonationDate time.Time         `json:"donation_date" validate:"required"`
	Entries      []bulkEntryInput  `json:"entries" validate:"required,min=1,dive"`
}

type bulkEntryInput struct {
	RegistrationID string `json:"registration_id" validate:"omitempty,uuid"`
	DonorID        string `json:"donor_id" validate:"omitempty,uuid"`
	VolumeML       int    `json:"volume_ml" validate:"required"`
	Outcome        string `json:"outcome" validate:"required,oneof=accepted rejected needs_review"`
}

type bulkResultsResponse struct {
	Results []*hospital.DonationResult `json:"results"`
}

type bulkFailureResponse struct {
	Error    string                     `json:"error"`
	Message  string                     `json:"message"`
	Failures []hospservice.EntryFailure `json:"failures"`
}

type confirmBloodTypeRequest struct {
	DonorID       string `json:"donor_id" validate:"required,uuid"`
	ConfirmedType string `json:"confirmed_type" validate:"required,oneof=A B AB O"`
	Note          string `json:"note"`
}

type confirmationResponse struct {
	Confirmation *hospital.BloodTypeConfirmation `json:"confirmation"`
}

type unconfirmedDonorsResponse struct {
	Donors []*identity.Donor `json:"donors"`
}

type historyResponse struct {
	History *hospital.DonorHistory `json:"history"`
}
