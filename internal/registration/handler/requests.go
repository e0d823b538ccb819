package handler

import (
	"time"

	"bloodlink/internal/registration"
	"bloodlink/internal/screening"
)

type submitRequest struct {
	EventID   string          `json:"event_id" validate:"required,uuid"`
	Screening screening.Input `json:"screening"`
}

type transitionRequest struct {
	Status          string     `json:"status" validate:"required,oneof=approved rejected"`
	Note            string     `json:"note" validate:"max=2000"`
	ReasonTags      []string   `json:"reason_tags" validate:"max=10"`
	AppointmentDate *time.Time `json:"appointment_date"`
	AppointmentSlot string     `json:"appointment_slot" validate:"max=100"`
}

func (r transitionRequest) appointment() *registration.Appointment {
	if r.AppointmentDate == nil {
		return nil
	}
	return &registration.Appointment{Date: *r.AppointmentDate, Slot: r.AppointmentSlot}
}

type registrationResponse struct {
	Registration *registration.Registration `json:"registration"`
}

type registrationListResponse struct {
	Registrations []*registration.Registration `json:"registrations"`
}
