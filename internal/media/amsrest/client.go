// Package amsrest implements media.Service over the Azure Media
// Services v2 (OData) REST API, authenticating with AAD
// client-credentials tokens.
package amsrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"amsgate/internal/media"
)

const (
	tokenURLFormat = "https://login.microsoftonline.com/%s/oauth2/token"
	resource       = "https://rest.media.azure.net"

	apiVersion         = "2.19"
	dataServiceVersion = "3.0"
	odataContentType   = "application/json;odata=verbose"
)

// Config carries the connection settings for one AMS account.
type Config struct {
	// RESTAPIEndpoint is the account endpoint, e.g.
	// https://accountname.restv2.region.media.azure.net/api/
	RESTAPIEndpoint string
	AADTenantDomain string
	ClientID        string
	ClientSecret    string
}

// Client is a media.Service backed by the AMS v2 REST API.
type Client struct {
	endpoint string
	http     *http.Client
}

// New builds a Client with a token-refreshing HTTP client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.RESTAPIEndpoint == "" {
		return nil, fmt.Errorf("amsrest: endpoint is required")
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf(tokenURLFormat, cfg.AADTenantDomain),
		EndpointParams: url.Values{
			"resource": {resource},
		},
	}

	return &Client{
		endpoint: strings.TrimSuffix(cfg.RESTAPIEndpoint, "/") + "/",
		http:     cc.Client(ctx),
	}, nil
}

// Endpoint returns the configured REST API endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) GetAsset(ctx context.Context, assetID string) (*media.Asset, error) {
	var out struct {
		D odataAsset `json:"d"`
	}
	path := fmt.Sprintf("Assets('%s')", url.PathEscape(assetID))
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &media.Asset{ID: out.D.ID, Name: out.D.Name}, nil
}

func (c *Client) GetLatestProcessor(ctx context.Context, name string) (*media.Processor, error) {
	var out struct {
		D struct {
			Results []odataProcessor `json:"results"`
		} `json:"d"`
	}
	path := "MediaProcessors?$filter=" + url.QueryEscape(fmt.Sprintf("Name eq '%s'", name))
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	if len(out.D.Results) == 0 {
		return nil, fmt.Errorf("media processor %s: %w", name, media.ErrNotFound)
	}

	// Latest version wins; the service lists versions unordered.
	latest := out.D.Results[0]
	for _, p := range out.D.Results[1:] {
		if versionNewer(p.Version, latest.Version) {
			latest = p
		}
	}
	return &media.Processor{ID: latest.ID, Name: latest.Name, Version: latest.Version}, nil
}

// versionNewer compares dotted versions component by component, so
// "10.0" beats "9.0". Missing or non-numeric components count as zero.
func versionNewer(a, b string) bool {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			return av > bv
		}
	}
	return false
}

func (c *Client) SubmitJob(ctx context.Context, spec media.JobSpec) (*media.Job, error) {
	body, err := buildJobBody(c.endpoint, spec)
	if err != nil {
		return nil, err
	}

	var out struct {
		D odataJob `json:"d"`
	}
	if err := c.post(ctx, "Jobs", body, &out); err != nil {
		return nil, fmt.Errorf("amsrest: submit job %q: %w", spec.Name, err)
	}

	job := out.D.toJob()

	// Task expansion is not guaranteed on the creation response.
	if len(job.Tasks) == 0 {
		return c.GetJob(ctx, job.ID)
	}
	return job, nil
}

func (c *Client) GetJob(ctx context.Context, jobID string) (*media.Job, error) {
	var out struct {
		D odataJob `json:"d"`
	}
	path := fmt.Sprintf("Jobs('%s')?$expand=%s",
		url.PathEscape(jobID),
		url.QueryEscape("Tasks,Tasks/OutputMediaAssets,Tasks/InputMediaAssets"),
	)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.D.toJob(), nil
}

func (c *Client) CountJobsInState(ctx context.Context, state media.JobState) (int, error) {
	var out struct {
		D struct {
			Count string `json:"__count"`
		} `json:"d"`
	}
	path := fmt.Sprintf("Jobs?$filter=%s&$inlinecount=allpages&$top=1",
		url.QueryEscape(fmt.Sprintf("State eq %d", int(state))))
	if err := c.get(ctx, path, &out); err != nil {
		return 0, err
	}

	var n int
	if _, err := fmt.Sscanf(out.D.Count, "%d", &n); err != nil {
		return 0, fmt.Errorf("amsrest: bad job count %q: %w", out.D.Count, err)
	}
	return n, nil
}

func (c *Client) EncodingReservedUnit(ctx context.Context) (*media.ReservedUnit, error) {
	var out struct {
		D struct {
			Results []struct {
				CurrentReservedUnits int `json:"CurrentReservedUnits"`
				ReservedUnitType     int `json:"ReservedUnitType"`
			} `json:"results"`
		} `json:"d"`
	}
	if err := c.get(ctx, "EncodingReservedUnitTypes", &out); err != nil {
		return nil, err
	}
	if len(out.D.Results) == 0 {
		return nil, fmt.Errorf("amsrest: account has no encoding reserved unit")
	}
	return &media.ReservedUnit{
		CurrentUnits: out.D.Results[0].CurrentReservedUnits,
		Type:         media.ReservedUnitType(out.D.Results[0].ReservedUnitType),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("amsrest: encode request: %w", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("x-ms-version", apiVersion)
	req.Header.Set("DataServiceVersion", dataServiceVersion)
	req.Header.Set("MaxDataServiceVersion", dataServiceVersion)
	req.Header.Set("Accept", odataContentType)
	if body != nil {
		req.Header.Set("Content-Type", odataContentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("amsrest: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("amsrest: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("amsrest: %s %s: %w", method, path, media.ErrNotFound)
	case resp.StatusCode >= 400:
		return fmt.Errorf("amsrest: %s %s: status %d: %s",
			method, path, resp.StatusCode, odataErrorMessage(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("amsrest: decode response: %w", err)
	}
	return nil
}

func odataErrorMessage(raw []byte) string {
	var e struct {
		Error struct {
			Message struct {
				Value string `json:"value"`
			} `json:"message"`
		} `json:"odata.error"`
	}
	if err := json.Unmarshal(raw, &e); err == nil && e.Error.Message.Value != "" {
		return e.Error.Message.Value
	}
	return strings.TrimSpace(string(raw))
}

// parseODataTime handles both ISO strings and the legacy /Date(ms)/ form.
func parseODataTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "/Date(") {
		var ms int64
		if _, err := fmt.Sscanf(s, "/Date(%d)/", &ms); err == nil {
			t := time.UnixMilli(ms).UTC()
			return &t
		}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
