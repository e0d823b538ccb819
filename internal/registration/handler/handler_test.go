package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodlink/internal/event"
	"bloodlink/internal/platform/metrics"
	"bloodlink/internal/registration"
	regservice "bloodlink/internal/registration/service"
	"bloodlink/pkg/domain"
	"bloodlink/pkg/testutil"
)

type fixture struct {
	router  chi.Router
	store   *registration.InMemoryStore
	events  *event.InMemoryDirectory
	orgID   domain.OrganizationID
	eventID domain.EventID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := registration.NewInMemoryStore()
	events := event.NewInMemoryDirectory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := regservice.NewService(store, events, logger, metrics.New(prometheus.NewRegistry()))

	orgID := domain.OrganizationID(uuid.New())
	eventID := domain.EventID(uuid.New())
	events.Put(event.Event{
		ID:         eventID,
		Name:       "Spring Drive",
		StartDate:  time.Now().Add(24 * time.Hour),
		EndDate:    time.Now().Add(48 * time.Hour),
		OwnerOrgID: orgID,
		HospitalID: domain.HospitalID(uuid.New()),
		Approved:   true,
	})

	router := chi.NewRouter()
	New(svc, logger).Register(router)
	return &fixture{router: router, store: store, events: events, orgID: orgID, eventID: eventID}
}

func cleanScreeningBody(eventID domain.EventID) map[string]any {
	return map[string]any{
		"event_id": eventID.String(),
		"screening": map[string]any{
			"last_12_months":    []string{"none"},
			"last_6_months":     []string{"none"},
			"last_1_month":      []string{"none"},
			"symptoms_14_days":  "none",
			"medication_7_days": "none",
		},
	}
}

func (f *fixture) submit(t *testing.T, donorID string) *registrationResponse {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/registrations", cleanScreeningBody(f.eventID))
	req = testutil.WithActor(req, donorID, domain.RoleDonor)
	rr := testutil.DoRequest(f.router, req)
	require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())
	return testutil.UnmarshalResponse[registrationResponse](t, rr)
}

func TestSubmitRegistration(t *testing.T) {
	f := newFixture(t)
	donorID := uuid.NewString()

	t.Run("creates pending registration", func(t *testing.T) {
		resp := f.submit(t, donorID)
		assert.Equal(t, registration.StatusPending, resp.Registration.Status)
		assert.Equal(t, donorID, resp.Registration.DonorID.String())
	})

	t.Run("duplicate active registration conflicts", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/registrations", cleanScreeningBody(f.eventID))
		req = testutil.WithActor(req, donorID, domain.RoleDonor)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
	})

	t.Run("screening violations return 422", func(t *testing.T) {
		body := cleanScreeningBody(f.eventID)
		body["screening"] = map[string]any{
			"current_illness":   true,
			"symptoms_14_days":  "none",
			"medication_7_days": "none",
		}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/registrations", body)
		req = testutil.WithActor(req, uuid.NewString(), domain.RoleDonor)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
	})

	t.Run("unknown event returns 404", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/registrations", cleanScreeningBody(domain.EventID(uuid.New())))
		req = testutil.WithActor(req, uuid.NewString(), domain.RoleDonor)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		req := testutil.NewRequestWithBody(t, http.MethodPost, "/registrations", "{not json")
		req = testutil.WithActor(req, uuid.NewString(), domain.RoleDonor)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("organization role cannot submit", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/registrations", cleanScreeningBody(f.eventID))
		req = testutil.WithActor(req, uuid.NewString(), domain.RoleOrganization)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})
}

func TestWithdrawRegistration(t *testing.T) {
	f := newFixture(t)
	donorID := uuid.NewString()
	resp := f.submit(t, donorID)
	regID := resp.Registration.ID.String()

	t.Run("other donor cannot withdraw", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodDelete, "/registrations/"+regID)
		req = testutil.WithActor(req, uuid.NewString(), domain.RoleDonor)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("owner withdraws pending registration", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodDelete, "/registrations/"+regID)
		req = testutil.WithActor(req, donorID, domain.RoleDonor)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})

	t.Run("withdrawn registration is gone", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodDelete, "/registrations/"+regID)
		req = testutil.WithActor(req, donorID, domain.RoleDonor)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}

func TestTransitionRegistration(t *testing.T) {
	f := newFixture(t)
	resp := f.submit(t, uuid.NewString())
	regID := resp.Registration.ID.String()

	t.Run("donor role cannot decide", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, "/registrations/"+regID+"/status", map[string]any{"status": "approved"})
		req = testutil.WithActor(req, uuid.NewString(), domain.RoleDonor)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("non-owning organization is forbidden", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, "/registrations/"+regID+"/status", map[string]any{
			"status":      "approved",
			"reason_tags": []string{"health_criteria_met"},
		})
		req = testutil.WithActor(req, uuid.NewString(), domain.RoleOrganization)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("invalid status fails shape validation", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, "/registrations/"+regID+"/status", map[string]any{"status": "maybe"})
		req = testutil.WithActor(req, f.orgID.String(), domain.RoleOrganization)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("owner approves with appointment", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, "/registrations/"+regID+"/status", map[string]any{
			"status":           "approved",
			"reason_tags":      []string{"health_criteria_met"},
			"appointment_date": time.Now().Add(30 * time.Hour).Format(time.RFC3339),
			"appointment_slot": "morning",
		})
		req = testutil.WithActor(req, f.orgID.String(), domain.RoleOrganization)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatusOK(t, rr)

		decided := testutil.UnmarshalResponse[registrationResponse](t, rr)
		assert.Equal(t, registration.StatusApproved, decided.Registration.Status)
		require.NotNil(t, decided.Registration.Appointment)
		assert.Equal(t, "morning", decided.Registration.Appointment.Slot)
	})

	t.Run("second decision conflicts", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, "/registrations/"+regID+"/status", map[string]any{
			"status": "rejected",
			"note":   "changed my mind",
		})
		req = testutil.WithActor(req, f.orgID.String(), domain.RoleOrganization)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
	})
}

func TestListRegistrations(t *testing.T) {
	f := newFixture(t)
	donorID := uuid.NewString()
	f.submit(t, donorID)

	t.Run("donor lists own registrations", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/registrations/my")
		req = testutil.WithActor(req, donorID, domain.RoleDonor)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatusOK(t, rr)

		list := testutil.UnmarshalResponse[registrationListResponse](t, rr)
		assert.Len(t, list.Registrations, 1)
	})

	t.Run("owning organization lists event registrations", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/registrations/event/"+f.eventID.String()+"/list")
		req = testutil.WithActor(req, f.orgID.String(), domain.RoleOrganization)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatusOK(t, rr)

		list := testutil.UnmarshalResponse[registrationListResponse](t, rr)
		assert.Len(t, list.Registrations, 1)
	})

	t.Run("other organization is forbidden", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/registrations/event/"+f.eventID.String()+"/list")
		req = testutil.WithActor(req, uuid.NewString(), domain.RoleOrganization)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})
}
