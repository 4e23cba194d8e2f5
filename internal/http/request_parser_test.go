package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"category":" Food ","amount":850.5}`))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}
	if got := parser.Get("category"); got != "Food" {
		t.Errorf("Get('category') = %q, want 'Food'", got)
	}
	amount, err := parser.Amount()
	if err != nil || amount != 850.5 {
		t.Errorf("Amount() = %v, %v, want 850.5", amount, err)
	}
}

func TestRequestBodyParser_Form(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("category=Travel&amount=12%2C50"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}
	if got := parser.Get("category"); got != "Travel" {
		t.Errorf("Get('category') = %q, want 'Travel'", got)
	}
	if amount, err := parser.Amount(); err != nil || amount != 12.5 {
		t.Errorf("Amount() = %v, %v, want 12.5", amount, err)
	}
}

func TestRequestBodyParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"whitespace body", "   "},
		{"broken json", `{"amount":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewRequestBodyParser(httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body)))
			if err := parser.Parse(); err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
		})
	}
}

func TestRequestBodyParser_Amount(t *testing.T) {
	tests := []struct {
		body    string
		want    float64
		wantErr bool
	}{
		{`{"amount":"1000"}`, 1000, false},
		{`{"amount":0}`, 0, false},
		{`{"amount":-5}`, 0, true},
		{`{"amount":"abc"}`, 0, true},
		{`{"category":"Food"}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			parser := NewRequestBodyParser(httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body)))
			if err := parser.Parse(); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got, err := parser.Amount()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Amount() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Amount() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Fo\x00od\t "); got != "Food" {
		t.Errorf("sanitizeInput() = %q, want 'Food'", got)
	}
}
