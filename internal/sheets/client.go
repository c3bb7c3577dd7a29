package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"
	readonlyScope  = "https://www.googleapis.com/auth/spreadsheets.readonly"
)

// Row is one data row keyed by header name.
type Row = map[string]string

// RowFetcher reads every data row of a sheet.
type RowFetcher interface {
	FetchRows(ctx context.Context, sheet string) ([]Row, error)
}

// Client reads sheet values through the Sheets v4 REST API.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	spreadsheetID string
}

func NewClient(httpClient *http.Client, spreadsheetID string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient:    httpClient,
		baseURL:       defaultBaseURL,
		spreadsheetID: spreadsheetID,
	}
}

// NewServiceAccountClient authenticates with a service account key file.
// The spreadsheet must be shared with the account's email address.
func NewServiceAccountClient(ctx context.Context, credentialsFile, spreadsheetID string) (*Client, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, readonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	hc := oauth2.NewClient(ctx, creds.TokenSource)
	hc.Timeout = 30 * time.Second
	return NewClient(hc, spreadsheetID), nil
}

// WithBaseURL points the client at another API root (used by tests).
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

type valuesResponse struct {
	Range  string     `json:"range"`
	Values [][]string `json:"values"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) FetchRows(ctx context.Context, sheet string) ([]Row, error) {
	endpoint := fmt.Sprintf("%s/%s/values/%s?majorDimension=ROWS&valueRenderOption=FORMATTED_VALUE",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(sheet))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		_ = json.Unmarshal(body, &apiErr)
		msg := apiErr.Error.Message
		if resp.StatusCode == http.StatusNotFound ||
			(resp.StatusCode == http.StatusBadRequest && strings.Contains(msg, "Unable to parse range")) {
			return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
		}
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("sheets api: %s", msg)
	}

	var vr valuesResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return recordsFromValues(vr.Values), nil
}

// recordsFromValues turns a header row plus data rows into maps. Short rows
// are padded with "", columns with an empty header are dropped, and rows whose
// cells are all empty are skipped.
func recordsFromValues(values [][]string) []Row {
	if len(values) == 0 {
		return nil
	}

	header := make([]string, len(values[0]))
	for i, h := range values[0] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(values)-1)
	for _, cells := range values[1:] {
		row := make(Row, len(header))
		empty := true
		for i, h := range header {
			if h == "" {
				continue
			}
			v := ""
			if i < len(cells) {
				v = cells[i]
			}
			if strings.TrimSpace(v) != "" {
				empty = false
			}
			row[h] = v
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows
}
