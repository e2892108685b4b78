package ehr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	perr "cpoflow/internal/platform/errors"
	"cpoflow/internal/services/accrual/domain"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL, APIKey: "k"})
}

func TestOrders_MapsWireFields(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Order/patient/p1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k" {
			t.Errorf("auth = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"daOrderType":"485 Plan of Care","documentName":"POC","startOfCare":"06/01/2025",
			 "episodeStartDate":"06/01/2025","episodeEndDate":"07/30/2025","extraField":true}
		]`))
	})

	got, err := c.Orders(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Orders: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("orders = %d, want 1", len(got))
	}
	o := got[0]
	if o.DocumentType != "485 Plan of Care" || o.EpisodeEndDate != "07/30/2025" {
		t.Fatalf("order = %+v", o)
	}
}

func TestCareNotes_ToleratesMixedMinuteEncodings(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[
			{"noteTitle":"a","noteText":"x","cpOmin":3,"updatedOn":"2025-06-01T10:00:00"},
			{"noteTitle":"b","noteText":"y","cpOmin":"6","createdAt":"2025-06-02T10:00:00"},
			{"noteTitle":"c","noteText":"z","cpOmin":null},
			{"noteTitle":"d","noteText":"w"}
		]`))
	})

	got, err := c.CareNotes(context.Background(), "p1")
	if err != nil {
		t.Fatalf("CareNotes: %v", err)
	}
	want := []int{3, 6, 0, 0}
	for i, n := range got {
		if n.Minutes != want[i] {
			t.Fatalf("note %d minutes = %d, want %d", i, n.Minutes, want[i])
		}
	}
}

func TestCertificationSummary(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Patient/total/p1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"agencyInfo":{"icdCodes":["I10","E11.9"],"physicianCertification":"I certify."}}`))
	})

	got, err := c.CertificationSummary(context.Background(), "p1")
	if err != nil {
		t.Fatalf("CertificationSummary: %v", err)
	}
	if len(got.Diagnoses) != 2 || got.CertificationStatement != "I certify." {
		t.Fatalf("summary = %+v", got)
	}
}

func TestCreateCareNote_PostsPayload(t *testing.T) {
	t.Parallel()

	var got map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/CCNotes/patient/p1" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})

	err := c.CreateCareNote(context.Background(), "p1", domain.NotePayload{
		PatientID: "p1",
		NoteType:  "CPO",
		NoteTitle: "Medication review",
		NoteText:  "Reviewed the list.",
		CPOMin:    3,
	})
	if err != nil {
		t.Fatalf("CreateCareNote: %v", err)
	}
	if got["noteTitle"] != "Medication review" || got["cpOmin"] != float64(3) {
		t.Fatalf("posted body = %v", got)
	}
	if _, ok := got["sentToPhysicianStatus"]; !ok {
		t.Fatal("posted body missing sentToPhysicianStatus")
	}
}

func TestCreateCareNote_RejectsInvalidPayloadLocally(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("invalid payload reached the wire")
	})

	err := c.CreateCareNote(context.Background(), "p1", domain.NotePayload{PatientID: "p1"})
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("err = %v, want validation code", err)
	}
}

func TestDo_NonSuccessStatusIsTransport(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})

	_, err := c.Orders(context.Background(), "p1")
	if !perr.IsCode(err, perr.ErrorCodeTransport) {
		t.Fatalf("err = %v, want transport code", err)
	}
}
