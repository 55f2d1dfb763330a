package cnpj

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/sitestock-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://brasilapi.com.br/api"
	responseBodyReadLimit int64 = 1024
)

// Cache stores lookups as JSON strings.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Client queries the public CNPJ registry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      Cache
	cacheKey   func(string) string
	cacheTTL   time.Duration
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the registry base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithCache enables read-through caching of successful lookups.
func WithCache(cache Cache, key func(string) string, ttl time.Duration) Option {
	return func(c *Client) {
		if cache != nil && key != nil && ttl > 0 {
			c.cache, c.cacheKey, c.cacheTTL = cache, key, ttl
		}
	}
}

// NewClient builds a registry client with a bounded timeout.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Company is the subset of registry data used to prefill a client.
type Company struct {
	CNPJ         string `json:"cnpj"`
	LegalName    string `json:"legal_name"`
	TradeName    string `json:"trade_name,omitempty"`
	Street       string `json:"street,omitempty"`
	Number       string `json:"number,omitempty"`
	Complement   string `json:"complement,omitempty"`
	District     string `json:"district,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	ZipCode      string `json:"zip_code,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Registration string `json:"registration_status,omitempty"`
}

// Address formats the registry address on one line.
func (c Company) Address() string {
	var parts []string
	street := strings.TrimSpace(strings.Join(nonEmpty(c.Street, c.Number), ", "))
	if c.Complement != "" {
		street = strings.TrimSpace(street + " " + c.Complement)
	}
	parts = append(parts, nonEmpty(street, c.District)...)
	cityState := strings.Join(nonEmpty(c.City, c.State), "/")
	parts = append(parts, nonEmpty(cityState, c.ZipCode)...)
	return strings.Join(parts, " - ")
}

// Lookup resolves a CNPJ. Invalid numbers fail validation without a request.
func (c *Client) Lookup(ctx context.Context, raw string) (*Company, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cnpj client not configured")
	}
	digits := Normalize(raw)
	if !ValidCNPJ(digits) {
		return nil, pkgerrors.Fields(map[string]string{"cnpj": "invalid CNPJ"})
	}

	if cached := c.fromCache(ctx, digits); cached != nil {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/cnpj/v1/%s", c.baseURL, digits), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build cnpj request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute cnpj request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cnpj not found")
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "cnpj lookup failed")
	}

	var apiResp struct {
		CNPJ            string `json:"cnpj"`
		RazaoSocial     string `json:"razao_social"`
		NomeFantasia    string `json:"nome_fantasia"`
		Logradouro      string `json:"logradouro"`
		Numero          string `json:"numero"`
		Complemento     string `json:"complemento"`
		Bairro          string `json:"bairro"`
		Municipio       string `json:"municipio"`
		UF              string `json:"uf"`
		CEP             string `json:"cep"`
		Telefone        string `json:"ddd_telefone_1"`
		SituacaoCadastr string `json:"descricao_situacao_cadastral"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cnpj response")
	}

	company := &Company{
		CNPJ:         digits,
		LegalName:    strings.TrimSpace(apiResp.RazaoSocial),
		TradeName:    strings.TrimSpace(apiResp.NomeFantasia),
		Street:       strings.TrimSpace(apiResp.Logradouro),
		Number:       strings.TrimSpace(apiResp.Numero),
		Complement:   strings.TrimSpace(apiResp.Complemento),
		District:     strings.TrimSpace(apiResp.Bairro),
		City:         strings.TrimSpace(apiResp.Municipio),
		State:        strings.TrimSpace(apiResp.UF),
		ZipCode:      strings.TrimSpace(apiResp.CEP),
		Phone:        strings.TrimSpace(apiResp.Telefone),
		Registration: strings.TrimSpace(apiResp.SituacaoCadastr),
	}
	c.toCache(ctx, company)
	return company, nil
}

func (c *Client) fromCache(ctx context.Context, digits string) *Company {
	if c.cache == nil {
		return nil
	}
	raw, err := c.cache.Get(ctx, c.cacheKey(digits))
	if err != nil || raw == "" {
		return nil
	}
	var company Company
	if err := json.Unmarshal([]byte(raw), &company); err != nil {
		return nil
	}
	return &company
}

func (c *Client) toCache(ctx context.Context, company *Company) {
	if c.cache == nil {
		return
	}
	payload, err := json.Marshal(company)
	if err != nil {
		return
	}
	// cache failures only cost a repeat lookup
	_ = c.cache.Set(ctx, c.cacheKey(company.CNPJ), string(payload), c.cacheTTL)
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, strings.TrimSpace(v))
		}
	}
	return out
}

// IsNotFound reports whether err is a registry miss.
func IsNotFound(err error) bool {
	var typed *pkgerrors.Error
	return errors.As(err, &typed) && typed.Code() == pkgerrors.CodeNotFound
}
