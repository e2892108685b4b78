// Package ehr provides the record-system REST client for the accrual workflow
package ehr

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"cpoflow/internal/core/certification"
	"cpoflow/internal/platform/bind"
	perr "cpoflow/internal/platform/errors"
	"cpoflow/internal/platform/logger"
	accdom "cpoflow/internal/services/accrual/domain"
)

const (
	defaultTimeout = 30 * time.Second
	defaultUA      = "cpoflow"
)

// Options configures the Client
type Options struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Timeout   time.Duration
}

// Client is a bearer-token client for the order/patient record API.
// Reads are not retried here: a broken read of source-of-truth data has no
// well-defined recovery at this layer
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
	now  func() time.Time
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("ehr"),
		now:  time.Now,
	}
}

// do issues one request with auth headers and returns the body on 2xx
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "ehr marshal payload")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path, body)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "ehr new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeTransport, "ehr %s %s failed", method, path)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Msg("failed to close response body")
		}
	}()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Msg("ehr http response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, perr.Newf(perr.ErrorCodeTransport,
			"ehr %s %s returned %d body %s", method, path, resp.StatusCode, string(tail))
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeTransport, "ehr %s %s read body", method, path)
	}
	return raw, nil
}

// wire types: field names match the record system's JSON

type wireOrder struct {
	DAOrderType      string `json:"daOrderType"`
	DocumentName     string `json:"documentName"`
	StartOfCare      string `json:"startOfCare"`
	EpisodeStartDate string `json:"episodeStartDate"`
	EpisodeEndDate   string `json:"episodeEndDate"`
}

type wireNote struct {
	NoteType  string          `json:"noteType"`
	NoteTitle string          `json:"noteTitle"`
	NoteText  string          `json:"noteText"`
	CPOMin    json.RawMessage `json:"cpOmin"`
	UpdatedOn string          `json:"updatedOn"`
	CreatedAt string          `json:"createdAt"`
}

type wireCertInfo struct {
	AgencyInfo struct {
		ICDCodes               []string `json:"icdCodes"`
		PhysicianCertification string   `json:"physicianCertification"`
	} `json:"agencyInfo"`
}

// minutes tolerates the record system emitting cpOmin as number, numeric
// string, null, or not at all; anything unusable counts as 0
func (n wireNote) minutes() int {
	raw := strings.Trim(strings.TrimSpace(string(n.CPOMin)), `"`)
	if raw == "" || raw == "null" {
		return 0
	}
	v := 0
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if ch < '0' || ch > '9' {
			return 0
		}
		v = v*10 + int(ch-'0')
	}
	return v
}

// Orders fetches the patient's order documents, server order preserved
func (c *Client) Orders(ctx context.Context, patientID string) ([]certification.Order, error) {
	raw, err := c.do(ctx, http.MethodGet, "/Order/patient/"+patientID, nil)
	if err != nil {
		return nil, err
	}
	wires, err := bind.DecodeJSON[[]wireOrder](bytes.NewReader(raw))
	if err != nil {
		return nil, perr.WithOp(err, "ehr.orders")
	}
	out := make([]certification.Order, 0, len(wires))
	for _, w := range wires {
		out = append(out, certification.Order{
			DocumentType:     w.DAOrderType,
			DocumentName:     w.DocumentName,
			StartOfCare:      w.StartOfCare,
			EpisodeStartDate: w.EpisodeStartDate,
			EpisodeEndDate:   w.EpisodeEndDate,
		})
	}
	return out, nil
}

// CareNotes fetches the patient's existing documentation records
func (c *Client) CareNotes(ctx context.Context, patientID string) ([]accdom.CareNote, error) {
	raw, err := c.do(ctx, http.MethodGet, "/CCNotes/patient/"+patientID, nil)
	if err != nil {
		return nil, err
	}
	wires, err := bind.DecodeJSON[[]wireNote](bytes.NewReader(raw))
	if err != nil {
		return nil, perr.WithOp(err, "ehr.care_notes")
	}
	out := make([]accdom.CareNote, 0, len(wires))
	for _, w := range wires {
		out = append(out, accdom.CareNote{
			NoteType:  w.NoteType,
			NoteTitle: w.NoteTitle,
			NoteText:  w.NoteText,
			Minutes:   w.minutes(),
			UpdatedOn: w.UpdatedOn,
			CreatedAt: w.CreatedAt,
		})
	}
	return out, nil
}

// CertificationSummary fetches diagnoses and the physician certification text
func (c *Client) CertificationSummary(ctx context.Context, patientID string) (accdom.CertSummary, error) {
	raw, err := c.do(ctx, http.MethodGet, "/Patient/total/"+patientID, nil)
	if err != nil {
		return accdom.CertSummary{}, err
	}
	wire, err := bind.DecodeJSON[wireCertInfo](bytes.NewReader(raw))
	if err != nil {
		return accdom.CertSummary{}, perr.WithOp(err, "ehr.cert_summary")
	}
	return accdom.CertSummary{
		Diagnoses:              wire.AgencyInfo.ICDCodes,
		CertificationStatement: wire.AgencyInfo.PhysicianCertification,
	}, nil
}

// CreateCareNote posts one accepted entry; commit mode only.
// The payload is validated before it leaves the process
func (c *Client) CreateCareNote(ctx context.Context, patientID string, p accdom.NotePayload) error {
	if err := bind.Check(p); err != nil {
		return perr.WithOp(err, "ehr.create_note")
	}
	_, err := c.do(ctx, http.MethodPost, "/CCNotes/patient/"+patientID, p)
	return err
}
