package cnpj

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/sitestock-backend/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type memoryCache struct {
	data map[string]string
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", errors.New("miss")
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = value.(string)
	return nil
}

const validCNPJ = "11.222.333/0001-81"

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestLookupMapsRegistryFields(t *testing.T) {
	var capturedURL string
	calls := 0
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		capturedURL = req.URL.String()
		return respond(http.StatusOK, `{
			"cnpj":"11222333000181",
			"razao_social":"ANDAIMES SILVA LTDA",
			"nome_fantasia":"Silva Andaimes",
			"logradouro":"RUA DAS OBRAS",
			"numero":"100",
			"bairro":"CENTRO",
			"municipio":"CURITIBA",
			"uf":"PR",
			"cep":"80000000",
			"ddd_telefone_1":"4133334444"
		}`), nil
	})

	cache := &memoryCache{data: map[string]string{}}
	client := NewClient(time.Second,
		WithBaseURL("http://registry.test/api/"),
		WithHTTPClient(&http.Client{Transport: rt}),
		WithCache(cache, func(d string) string { return "cnpj:" + d }, time.Hour),
	)

	company, err := client.Lookup(context.Background(), validCNPJ)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if capturedURL != "http://registry.test/api/cnpj/v1/11222333000181" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if company.LegalName != "ANDAIMES SILVA LTDA" || company.Phone != "4133334444" {
		t.Fatalf("unexpected company %+v", company)
	}
	if got := company.Address(); got != "RUA DAS OBRAS, 100 - CENTRO - CURITIBA/PR - 80000000" {
		t.Fatalf("unexpected address %q", got)
	}

	if _, err := client.Lookup(context.Background(), validCNPJ); err != nil {
		t.Fatalf("cached lookup: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected second lookup to hit the cache, got %d calls", calls)
	}
}

func TestLookupNotFound(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusNotFound, `{"message":"not found"}`), nil
	})
	client := NewClient(time.Second, WithHTTPClient(&http.Client{Transport: rt}))

	_, err := client.Lookup(context.Background(), validCNPJ)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLookupUpstreamFailureIsDependencyError(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusBadGateway, "upstream down"), nil
	})
	client := NewClient(time.Second, WithHTTPClient(&http.Client{Transport: rt}))

	_, err := client.Lookup(context.Background(), validCNPJ)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestLookupRejectsInvalidCNPJWithoutRequest(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	client := NewClient(time.Second, WithHTTPClient(&http.Client{Transport: rt}))
	if _, err := client.Lookup(context.Background(), "11.222.333/0001-00"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckDigits(t *testing.T) {
	tests := []struct {
		value string
		cnpj  bool
		cpf   bool
	}{
		{value: "11.222.333/0001-81", cnpj: true},
		{value: "11222333000182"},
		{value: "00000000000000"},
		{value: "529.982.247-25", cpf: true},
		{value: "52998224724"},
		{value: "111.111.111-11"},
	}
	for _, tt := range tests {
		if got := ValidCNPJ(tt.value); got != tt.cnpj {
			t.Fatalf("ValidCNPJ(%q) = %v", tt.value, got)
		}
		if got := ValidCPF(tt.value); got != tt.cpf {
			t.Fatalf("ValidCPF(%q) = %v", tt.value, got)
		}
	}
}
