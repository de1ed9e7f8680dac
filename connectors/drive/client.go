package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"painel-preditivo/connectors/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	apiBase       = "https://www.googleapis.com/drive/v3"
	readonlyScope = "https://www.googleapis.com/auth/drive.readonly"

	// SheetMimeType is the Drive type of a native Google Sheets document.
	SheetMimeType = "application/vnd.google-apps.spreadsheet"
	// XLSXMimeType is the export format requested for native sheets.
	XLSXMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	maxFileSize = 64 << 20
)

// Client reads files from Google Drive with a service account.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// File is a downloaded Drive file.
type File struct {
	ID       string
	Name     string
	MimeType string
	Data     []byte
}

// NewClient builds a Drive client from the service account JSON key content.
func NewClient(ctx context.Context, serviceAccountJSON string) (*Client, error) {
	conf, err := google.JWTConfigFromJSON([]byte(serviceAccountJSON), readonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse service account JSON: %v", config.ErrInvalid, err)
	}
	// token requests go through this client
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: 30 * time.Second})
	hc := conf.Client(ctx)
	hc.Timeout = 60 * time.Second
	return &Client{httpClient: hc, baseURL: apiBase}, nil
}

// NewWithHTTPClient uses an already authenticated client, e.g. in tests.
func NewWithHTTPClient(c *http.Client, baseURL string) *Client {
	if c == nil {
		c = &http.Client{Timeout: 60 * time.Second}
	}
	if baseURL == "" {
		baseURL = apiBase
	}
	return &Client{httpClient: c, baseURL: baseURL}
}

type fileMetadata struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

// Fetch downloads a file by id. Native Google Sheets are exported as xlsx, anything else is
// downloaded as stored.
func (c *Client) Fetch(ctx context.Context, id string) (File, error) {
	if id == "" {
		return File{}, fmt.Errorf("%w: empty Drive file id", config.ErrInvalid)
	}
	q := url.Values{"fields": {"id,name,mimeType"}, "supportsAllDrives": {"true"}}
	body, err := c.get(ctx, c.fileURL(id, "")+"?"+q.Encode())
	if err != nil {
		return File{}, err
	}
	var meta fileMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return File{}, fmt.Errorf("failed to decode metadata for %s: %w", id, err)
	}

	f := File{ID: id, Name: meta.Name, MimeType: meta.MimeType}
	if meta.MimeType == SheetMimeType {
		q = url.Values{"mimeType": {XLSXMimeType}}
		f.Data, err = c.get(ctx, c.fileURL(id, "export")+"?"+q.Encode())
		if path.Ext(f.Name) == "" {
			f.Name += ".xlsx"
		}
	} else {
		q = url.Values{"alt": {"media"}, "supportsAllDrives": {"true"}}
		f.Data, err = c.get(ctx, c.fileURL(id, "")+"?"+q.Encode())
	}
	if err != nil {
		return File{}, err
	}
	return f, nil
}

func (c *Client) fileURL(id, suffix string) string {
	u := c.baseURL + "/files/" + url.PathEscape(id)
	if suffix != "" {
		u += "/" + suffix
	}
	return u
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("drive API %s returned %d: %s", req.URL.Path, resp.StatusCode, string(body))
	}
	return body, nil
}
