package asset

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUploadFailed wraps remote store failures during an upload.
	ErrUploadFailed = errors.New("asset upload failed")
	// ErrDeleteFailed wraps remote store failures during a deletion.
	ErrDeleteFailed = errors.New("asset deletion failed")
	// ErrNotConfigured indicates missing remote store credentials.
	ErrNotConfigured = errors.New("asset gateway is not configured")
)

// StoredAsset describes a successfully stored remote object.
type StoredAsset struct {
	URL      string
	PublicID string
}

// Gateway stores and deletes binary image assets in a remote image host.
type Gateway interface {
	Store(ctx context.Context, data []byte, folder string) (StoredAsset, error)
	Delete(ctx context.Context, publicID string) error
	Configured() bool
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// CloudinaryGateway talks to the Cloudinary upload REST API.
type CloudinaryGateway struct {
	cloudName string
	apiKey    string
	apiSecret string
	baseURL   string
	http      httpDoer
	now       func() time.Time
}

// NewCloudinaryGateway creates a gateway for the given account credentials.
func NewCloudinaryGateway(cloudName, apiKey, apiSecret string) *CloudinaryGateway {
	return &CloudinaryGateway{
		cloudName: strings.TrimSpace(cloudName),
		apiKey:    strings.TrimSpace(apiKey),
		apiSecret: strings.TrimSpace(apiSecret),
		baseURL:   "https://api.cloudinary.com/v1_1",
		http:      &http.Client{Timeout: 60 * time.Second},
		now:       time.Now,
	}
}

// SetHTTPClient overrides the HTTP client, mainly for tests.
func (g *CloudinaryGateway) SetHTTPClient(client httpDoer) {
	if client == nil {
		g.http = &http.Client{Timeout: 60 * time.Second}
		return
	}
	g.http = client
}

// SetBaseURL overrides the API endpoint, mainly for tests.
func (g *CloudinaryGateway) SetBaseURL(base string) {
	g.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
}

// Configured reports whether all account credentials are present.
func (g *CloudinaryGateway) Configured() bool {
	return g.cloudName != "" && g.apiKey != "" && g.apiSecret != ""
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	PublicID  string `json:"public_id"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Store uploads image bytes into the given folder and returns the delivery
// URL together with the assigned public ID.
func (g *CloudinaryGateway) Store(ctx context.Context, data []byte, folder string) (StoredAsset, error) {
	if !g.Configured() {
		return StoredAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, ErrNotConfigured)
	}

	publicID := uuid.NewString()
	timestamp := strconv.FormatInt(g.now().Unix(), 10)
	params := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder != "" {
		params["folder"] = folder
	}
	signature := g.sign(params)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range params {
		if err := writer.WriteField(key, value); err != nil {
			return StoredAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
	}
	if err := writer.WriteField("api_key", g.apiKey); err != nil {
		return StoredAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := writer.WriteField("signature", signature); err != nil {
		return StoredAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	part, err := writer.CreateFormFile("file", publicID)
	if err != nil {
		return StoredAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if _, err := part.Write(data); err != nil {
		return StoredAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := writer.Close(); err != nil {
		return StoredAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", g.baseURL, g.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return StoredAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.http.Do(req)
	if err != nil {
		return StoredAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return StoredAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return StoredAsset{}, fmt.Errorf("%w: unexpected response (status %d)", ErrUploadFailed, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		message := strings.TrimSpace(parsed.Error.Message)
		if message == "" {
			message = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return StoredAsset{}, fmt.Errorf("%w: %s", ErrUploadFailed, message)
	}

	assetURL := parsed.SecureURL
	if assetURL == "" {
		assetURL = parsed.URL
	}
	if assetURL == "" || parsed.PublicID == "" {
		return StoredAsset{}, fmt.Errorf("%w: response missing asset location", ErrUploadFailed)
	}

	return StoredAsset{URL: assetURL, PublicID: parsed.PublicID}, nil
}

type destroyResponse struct {
	Result string `json:"result"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Delete removes the remote object behind publicID. Deleting an already
// missing object is not an error.
func (g *CloudinaryGateway) Delete(ctx context.Context, publicID string) error {
	if !g.Configured() {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, ErrNotConfigured)
	}

	timestamp := strconv.FormatInt(g.now().Unix(), 10)
	params := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}

	form := url.Values{}
	for key, value := range params {
		form.Set(key, value)
	}
	form.Set("api_key", g.apiKey)
	form.Set("signature", g.sign(params))

	endpoint := fmt.Sprintf("%s/%s/image/destroy", g.baseURL, g.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	defer resp.Body.Close()

	var parsed destroyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("%w: unexpected response (status %d)", ErrDeleteFailed, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		message := strings.TrimSpace(parsed.Error.Message)
		if message == "" {
			message = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("%w: %s", ErrDeleteFailed, message)
	}
	if parsed.Result != "ok" && parsed.Result != "not found" {
		return fmt.Errorf("%w: %s", ErrDeleteFailed, parsed.Result)
	}

	return nil
}

// sign produces the request signature Cloudinary expects: the parameters
// sorted by name, joined as a query string, concatenated with the API secret
// and hashed with SHA-1.
func (g *CloudinaryGateway) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + g.apiSecret))
	return fmt.Sprintf("%x", sum)
}
