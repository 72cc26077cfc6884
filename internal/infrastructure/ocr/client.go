package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	documentapp "github.com/bizconsult/crm/internal/application/document"
	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var _ documentapp.Extractor = (*Client)(nil)

var wonPerEok = decimal.NewFromInt(100_000_000)

// Client reads documents through an OpenAI-compatible vision endpoint
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	logger     *zap.Logger
	httpClient *http.Client
}

// NewClient creates a vision OCR client
func NewClient(cfg *config.OCRConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("ocr: base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ocr: API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Extract sends the image or PDF to the model and maps its JSON answer onto the
// fields relevant for kind.
func (c *Client) Extract(ctx context.Context, kind customer.DocumentKind, data []byte, contentType string) (*documentapp.Extraction, error) {
	prompt, ok := kindPrompts[kind]
	if !ok {
		return nil, fmt.Errorf("ocr: %s: %w", kind, documentapp.ErrUnsupportedContent)
	}
	part, err := documentPart(kind, data, contentType)
	if err != nil {
		return nil, err
	}

	body := chatRequest{
		Model:          c.model,
		MaxTokens:      c.maxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: prompt},
				part,
			}},
		},
	}

	start := time.Now()
	respBody, err := c.doRequest(ctx, body)
	if err != nil {
		c.logger.Warn("OCR request failed",
			zap.String("kind", string(kind)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: ocr: decode response: %v", shared.ErrExternalService, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: ocr: %s", shared.ErrExternalService, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: ocr: empty response", shared.ErrExternalService)
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)
	extraction, err := parseExtraction(kind, []byte(content))
	if err != nil {
		return nil, fmt.Errorf("%w: ocr: %v", shared.ErrExternalService, err)
	}

	c.logger.Info("OCR extraction completed",
		zap.String("kind", string(kind)),
		zap.Bool("empty", extraction.IsEmpty()),
		zap.Duration("duration", time.Since(start)))
	return extraction, nil
}

// documentPart embeds the payload as an image_url part for images and as a
// file part for PDFs.
func documentPart(kind customer.DocumentKind, data []byte, contentType string) (contentPart, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	dataURL := "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(data)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return contentPart{Type: "image_url", ImageURL: &imageURL{URL: dataURL, Detail: "high"}}, nil
	case ct == documentapp.ContentTypePDF:
		return contentPart{Type: "file", File: &fileData{Filename: string(kind) + ".pdf", FileData: dataURL}}, nil
	}
	return contentPart{}, fmt.Errorf("ocr: %s: %w", contentType, documentapp.ErrUnsupportedContent)
}

func (c *Client) doRequest(ctx context.Context, body chatRequest) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ocr: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ocr: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: ocr: %v", shared.ErrExternalService, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ocr: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: ocr: HTTP %d", shared.ErrExternalService, resp.StatusCode)
	}
	return respBody, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func parseExtraction(kind customer.DocumentKind, content []byte) (*documentapp.Extraction, error) {
	out := &documentapp.Extraction{Kind: kind}
	switch kind {
	case customer.DocumentKindBusinessRegistration:
		var p registrationPayload
		if err := json.Unmarshal(content, &p); err != nil {
			return nil, fmt.Errorf("decode registration: %w", err)
		}
		reg := &documentapp.BusinessRegistration{
			CompanyName:        strings.TrimSpace(p.CompanyName),
			RegistrationNumber: customer.NormalizeRegistrationNumber(p.RegistrationNumber),
			CorporateNumber:    strings.TrimSpace(p.CorporateNumber),
			Representative:     strings.TrimSpace(p.Representative),
			Address:            strings.TrimSpace(p.Address),
			Industry:           strings.TrimSpace(p.Industry),
			FoundingDate:       parseDate(p.FoundingDate),
		}
		if *reg != (documentapp.BusinessRegistration{}) {
			out.Registration = reg
		}

	case customer.DocumentKindVATCertificate:
		var p salesPayload
		if err := json.Unmarshal(content, &p); err != nil {
			return nil, fmt.Errorf("decode sales: %w", err)
		}
		for _, s := range p.Sales {
			won, err := decimal.NewFromString(s.AmountWon.String())
			if err != nil || s.Year < 1900 {
				continue
			}
			out.Sales = append(out.Sales, customer.YearlySales{
				Year:      s.Year,
				AmountEok: won.Div(wonPerEok).Round(2),
			})
		}

	case customer.DocumentKindCreditReport:
		var p obligationsPayload
		if err := json.Unmarshal(content, &p); err != nil {
			return nil, fmt.Errorf("decode obligations: %w", err)
		}
		for _, o := range p.Obligations {
			balance, err := decimal.NewFromString(o.BalanceWon.String())
			if err != nil {
				balance = decimal.Zero
			}
			lineKind := customer.ObligationKindLoan
			if strings.EqualFold(strings.TrimSpace(o.Kind), string(customer.ObligationKindGuarantee)) || strings.Contains(o.Kind, "보증") {
				lineKind = customer.ObligationKindGuarantee
			}
			line := customer.FinancialObligation{
				Institution: strings.TrimSpace(o.Institution),
				Kind:        lineKind,
				Balance:     balance,
				OpenedAt:    parseDate(o.OpenedAt),
				MaturityAt:  parseDate(o.MaturityAt),
			}
			if line.Validate() != nil {
				continue
			}
			out.Obligations = append(out.Obligations, line)
		}
	}
	return out, nil
}

var dateLayouts = []string{"2006-01-02", "2006.01.02", "2006/01/02", "20060102", "2006년 01월 02일", "2006년 1월 2일"}

func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
