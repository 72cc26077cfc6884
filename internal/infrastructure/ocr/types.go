package ocr

import "encoding/json"

// chatRequest is the OpenAI-compatible chat completion request body
type chatRequest struct {
	Model          string          `json:"model"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Messages       []chatMessage   `json:"messages"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
	File     *fileData `json:"file,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// fileData carries a base64 data URL, used for PDFs
type fileData struct {
	Filename string `json:"filename"`
	FileData string `json:"file_data"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// registrationPayload mirrors the JSON the model returns for a business registration certificate
type registrationPayload struct {
	CompanyName        string `json:"company_name"`
	RegistrationNumber string `json:"registration_number"`
	CorporateNumber    string `json:"corporate_number"`
	Representative     string `json:"representative"`
	Address            string `json:"address"`
	Industry           string `json:"industry"`
	FoundingDate       string `json:"founding_date"`
}

type salesPayload struct {
	Sales []struct {
		Year      int         `json:"year"`
		AmountWon json.Number `json:"amount_won"`
	} `json:"sales"`
}

type obligationsPayload struct {
	Obligations []struct {
		Institution string      `json:"institution"`
		Kind        string      `json:"kind"`
		BalanceWon  json.Number `json:"balance_won"`
		OpenedAt    string      `json:"opened_at"`
		MaturityAt  string      `json:"maturity_at"`
	} `json:"obligations"`
}
