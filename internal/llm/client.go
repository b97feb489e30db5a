// Package llm calls an OpenAI-compatible chat-completions API to analyze
// agricultural documents. When no API key is configured, or the remote call
// fails after retries, a keyword-based fallback analysis is used so the
// verification pipeline keeps working offline.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/agritrust/go-agritrust-backend/internal/config"
)

const (
	maxRetries     = 3
	initDelay      = 1 * time.Second
	maxContentSize = 3000
)

// Analysis is the structured verdict on one document.
type Analysis struct {
	IsValid       bool           `json:"isValid"`
	Confidence    int            `json:"confidence"`
	ExtractedData map[string]any `json:"extractedData"`
	Details       string         `json:"validationDetails"`
	Fallback      bool           `json:"fallback,omitempty"`
}

// Analyzer produces an Analysis for a document's text content.
type Analyzer interface {
	AnalyzeDocument(ctx context.Context, content, docType string) (*Analysis, error)
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// New builds a Client from configuration. The key may be empty; calls then
// return the fallback analysis without hitting the network.
func New(cfg config.LLMConfig) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// IsConfigured reports whether remote analysis is available.
func (c *Client) IsConfigured() bool { return c.apiKey != "" }

// AnalyzeDocument extracts structured information from a document and judges
// its validity. It never returns an error for analysis failures; the fallback
// verdict is used instead so document processing can proceed.
func (c *Client) AnalyzeDocument(ctx context.Context, content, docType string) (*Analysis, error) {
	if !c.IsConfigured() {
		return fallbackAnalysis(content, docType), nil
	}

	text, err := c.complete(ctx, systemPrompt(docType), userPrompt(content, docType))
	if err != nil {
		log.Warn().Err(err).Str("doc_type", docType).Msg("llm analysis failed, using fallback")
		return fallbackAnalysis(content, docType), nil
	}
	return parseAnalysis(text, docType), nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.1,
		MaxTokens:   1000,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * initDelay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("chat API error (%d): %s", resp.StatusCode, string(respBody))
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return "", lastErr
		}

		var apiResp chatResponse
		if err := json.Unmarshal(respBody, &apiResp); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if len(apiResp.Choices) == 0 {
			return "", fmt.Errorf("empty response choices")
		}
		return apiResp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, lastErr)
}

func userPrompt(content, docType string) string {
	ellipsis := ""
	if len(content) > maxContentSize {
		// Cut on a rune boundary; Spanish documents are full of multi-byte
		// characters and a split rune would send invalid UTF-8 to the API.
		cut := maxContentSize
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
		ellipsis = " ..."
	}
	return fmt.Sprintf(`Analiza el siguiente documento agrícola mexicano (tipo: %s):

%s%s

Extrae información relevante y valida su autenticidad. Responde en formato JSON.`, docType, content, ellipsis)
}

const jsonContract = `Responde en formato JSON con: isValid (boolean), confidence (0-100), extractedData (objeto), validationDetails (string).`

func systemPrompt(docType string) string {
	switch docType {
	case "certification":
		return `Eres un experto en certificaciones agrícolas mexicanas.
Valida certificaciones de SAGARPA, SENASICA, orgánicas, BPA.
Verifica números de certificación, fechas de vigencia, y autenticidad.
` + jsonContract
	case "warehouse":
		return `Eres un experto en validación de almacenes agrícolas.
Valida información de almacenes, bodegas, depósitos.
Verifica ubicación, capacidad, certificaciones de almacenamiento.
` + jsonContract
	case "crop":
		return `Eres un experto en validación de cultivos agrícolas.
Valida información de cultivos, cosechas, siembras.
Verifica tipo de cultivo, fechas, ubicación, certificaciones.
` + jsonContract
	default:
		return `Eres un experto en validación de documentos de identidad mexicanos.
Valida documentos como INE, CURP, RFC.
Verifica que la información sea consistente y válida.
` + jsonContract
	}
}

// parseAnalysis extracts the JSON object from the model output, tolerating
// surrounding prose and markdown code fences.
func parseAnalysis(text, docType string) *Analysis {
	raw := strings.TrimSpace(text)
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			var parsed struct {
				IsValid       bool           `json:"isValid"`
				Confidence    int            `json:"confidence"`
				ExtractedData map[string]any `json:"extractedData"`
				Details       string         `json:"validationDetails"`
			}
			if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err == nil {
				a := &Analysis{
					IsValid:       parsed.IsValid,
					Confidence:    parsed.Confidence,
					ExtractedData: parsed.ExtractedData,
					Details:       parsed.Details,
				}
				if a.Confidence == 0 {
					a.Confidence = 50
				}
				if a.ExtractedData == nil {
					a.ExtractedData = map[string]any{}
				}
				if a.Details == "" {
					a.Details = raw
				}
				return a
			}
		}
	}

	low := strings.ToLower(raw)
	return &Analysis{
		IsValid:       strings.Contains(low, "válido") || strings.Contains(low, "valid"),
		Confidence:    50,
		ExtractedData: map[string]any{"docType": docType},
		Details:       raw,
	}
}

// fallbackAnalysis is a coarse offline verdict: a document with enough
// content passes with low confidence.
func fallbackAnalysis(content, docType string) *Analysis {
	ok := len(content) > 50
	confidence := 30
	verdict := "muy corto o vacío"
	if ok {
		confidence = 60
		verdict = "contiene información"
	}
	return &Analysis{
		IsValid:    ok,
		Confidence: confidence,
		ExtractedData: map[string]any{
			"docType":       docType,
			"contentLength": len(content),
		},
		Details:  fmt.Sprintf("Análisis básico realizado. Documento %s.", verdict),
		Fallback: true,
	}
}
