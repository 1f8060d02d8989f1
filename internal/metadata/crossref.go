// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/equitylab/positionality-engine/internal/httputil"
	"github.com/equitylab/positionality-engine/pkg/types"
)

// crossrefAPIBase is the CrossRef works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works/"

// CrossRefSource fills bibliographic fields by looking the DOI up in the
// CrossRef API. It runs last in the chain and only when an earlier source
// found a DOI. Requests are rate limited and time bounded; any failure
// leaves the record as the local sources built it.
type CrossRefSource struct {
	Client     *http.Client
	UserAgent  string
	MaxRetries int

	limiter *rate.Limiter
}

// NewCrossRef builds a CrossRef source from metadata configuration.
func NewCrossRef(cfg types.MetadataConfig) *CrossRefSource {
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 5
	}
	return &CrossRefSource{
		Client:     &http.Client{Timeout: cfg.Timeout},
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Name returns the source identifier.
func (s *CrossRefSource) Name() string { return types.SourceCrossRef }

// Attempt queries the CrossRef works endpoint for the DOI accumulated by
// earlier sources.
func (s *CrossRefSource) Attempt(ctx context.Context, _ *types.Document, have types.MetadataRecord) (Fields, error) {
	if have.DOI == "" {
		return Fields{}, errNoData
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return Fields{}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crossrefAPIBase+have.DOI, nil)
	if err != nil {
		return Fields{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, s.MaxRetries)
	if err != nil {
		return Fields{}, fmt.Errorf("CrossRef API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Fields{}, fmt.Errorf("DOI %s not indexed by CrossRef", have.DOI)
	}
	if resp.StatusCode != http.StatusOK {
		return Fields{}, fmt.Errorf("CrossRef API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Fields{}, fmt.Errorf("parsing CrossRef response: %w", err)
	}

	return fieldsFromWork(cr.Message), nil
}

// fieldsFromWork maps a CrossRef work to metadata fields.
func fieldsFromWork(w crossrefWork) Fields {
	var f Fields
	if len(w.Title) > 0 {
		f.Title = strings.TrimSpace(w.Title[0])
	}
	for _, a := range w.Author {
		if name := strings.TrimSpace(a.Given + " " + a.Family); name != "" {
			f.Authors = append(f.Authors, name)
		}
	}
	if len(w.ContainerTitle) > 0 {
		f.Journal = strings.TrimSpace(w.ContainerTitle[0])
	}
	f.Volume = w.Volume
	f.Issue = w.Issue
	if y := w.Issued.year(); y != 0 {
		f.Year = y
	} else {
		f.Year = w.Created.year()
	}
	return f
}

// CrossRef API JSON structures.
type crossrefResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	Title          []string         `json:"title"`
	Author         []crossrefAuthor `json:"author"`
	ContainerTitle []string         `json:"container-title"`
	Volume         string           `json:"volume"`
	Issue          string           `json:"issue"`
	Issued         crossrefDate     `json:"issued"`
	Created        crossrefDate     `json:"created"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

func (d crossrefDate) year() int {
	if len(d.DateParts) > 0 && len(d.DateParts[0]) > 0 {
		return d.DateParts[0][0]
	}
	return 0
}
