package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"
)

// Client pushes cases to search-service for indexing (best-effort, never
// blocks the API path).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client. With an empty baseURL IndexCase is a no-op.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// IndexCasePayload — body of POST /search/index/case.
type IndexCasePayload struct {
	CaseID         string `json:"case_id"`
	PublicID       int64  `json:"public_id"`
	CategoryID     string `json:"category_id"`
	ChannelID      string `json:"channel_id"`
	Subcategory    string `json:"subcategory,omitempty"`
	ApplicantName  string `json:"applicant_name"`
	ApplicantPhone string `json:"applicant_phone,omitempty"`
	ApplicantEmail string `json:"applicant_email,omitempty"`
	Summary        string `json:"summary"`
	Status         string `json:"status"`
}

// IndexCase sends a case to search-service. Call in a goroutine after
// create/update.
func (c *Client) IndexCase(ctx context.Context, cs *model.Case) {
	if c.baseURL == "" {
		return
	}
	payload := IndexCasePayload{
		CaseID:         cs.ID.String(),
		PublicID:       cs.PublicID,
		CategoryID:     cs.CategoryID.String(),
		ChannelID:      cs.ChannelID.String(),
		Subcategory:    cs.Subcategory,
		ApplicantName:  cs.ApplicantName,
		ApplicantPhone: cs.ApplicantPhone,
		ApplicantEmail: cs.ApplicantEmail,
		Summary:        cs.Summary,
		Status:         string(cs.Status),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("searchindex: marshal: %v", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search/index/case", bytes.NewReader(body))
	if err != nil {
		log.Printf("searchindex: new request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("searchindex: request: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("searchindex: status %d for case %d", resp.StatusCode, cs.PublicID)
		return
	}
}

// IndexCaseAsync calls IndexCase in its own goroutine (does not block the
// API response).
func (c *Client) IndexCaseAsync(cs *model.Case) {
	if c.baseURL == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.IndexCase(ctx, cs)
	}()
}
