// Package notification delivers SMS through a Solapi-compatible REST API.
package notification

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	notificationapp "github.com/bizconsult/crm/internal/application/notification"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/infrastructure/config"
	"github.com/google/uuid"
)

const defaultBaseURL = "https://api.solapi.com"

var _ notificationapp.SMSSender = (*SolapiClient)(nil)

// SolapiClient sends single messages through /messages/v4/send
type SolapiClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	sender     string
	httpClient *http.Client
	now        func() time.Time
	salt       func() string
}

// NewSolapiClient creates an SMS client
func NewSolapiClient(cfg *config.NotificationConfig) (*SolapiClient, error) {
	if cfg == nil || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("notification: API key and secret are required")
	}
	if normalizePhone(cfg.Sender) == "" {
		return nil, fmt.Errorf("notification: sender number is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SolapiClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		sender:    normalizePhone(cfg.Sender),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now:  time.Now,
		salt: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}, nil
}

type sendRequest struct {
	Message message `json:"message"`
}

type message struct {
	To   string `json:"to"`
	From string `json:"from"`
	Text string `json:"text"`
}

type sendResponse struct {
	GroupID       string `json:"groupId"`
	MessageID     string `json:"messageId"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	ErrorCode     string `json:"errorCode"`
	ErrorMessage  string `json:"errorMessage"`
}

// Send delivers text to the given phone number
func (c *SolapiClient) Send(ctx context.Context, to, text string) (string, error) {
	phone := normalizePhone(to)
	if phone == "" {
		return "", shared.NewDomainError("INVALID_PHONE", "Recipient phone number is required")
	}
	if strings.TrimSpace(text) == "" {
		return "", shared.NewDomainError("INVALID_MESSAGE", "Message text is required")
	}

	body, err := json.Marshal(sendRequest{Message: message{To: phone, From: c.sender, Text: text}})
	if err != nil {
		return "", fmt.Errorf("notification: failed to encode request: %w", err)
	}

	respBody, status, err := c.doRequest(ctx, http.MethodPost, "/messages/v4/send", body)
	if err != nil {
		return "", err
	}

	var resp sendResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("%w: notification: decode response: %v", shared.ErrExternalService, err)
	}
	if status >= 400 || resp.ErrorCode != "" {
		return "", fmt.Errorf("%w: notification: HTTP %d %s %s", shared.ErrExternalService, status, resp.ErrorCode, resp.ErrorMessage)
	}
	return resp.MessageID, nil
}

// doRequest performs a signed request and returns the body with its status code
func (c *SolapiClient) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("notification: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authorization())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: notification: %v", shared.ErrExternalService, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("notification: failed to read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

// authorization builds the HMAC-SHA256 header: signature = hex(HMAC(secret, date+salt))
func (c *SolapiClient) authorization() string {
	date := c.now().UTC().Format(time.RFC3339)
	salt := c.salt()
	return fmt.Sprintf("HMAC-SHA256 apiKey=%s, date=%s, salt=%s, signature=%s",
		c.apiKey, date, salt, sign(c.apiSecret, date, salt))
}

func sign(secret, date, salt string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(date + salt))
	return hex.EncodeToString(mac.Sum(nil))
}

// normalizePhone keeps digits only
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
