package domain

import (
	"testing"
)

func validDefinition() Definition {
	return Definition{
		ID:               "notify-slack",
		Name:             "Notify Slack",
		URL:              "https://hooks.example.com/notify",
		Method:           "POST",
		TimeoutSeconds:   10,
		RetryAttempts:    3,
		RetryBackoffBase: 2,
	}
}

func TestDefinition_Normalize(t *testing.T) {
	def := Definition{
		ID:     "wh1",
		Name:   "Webhook One",
		URL:    "https://example.com/hook",
		Method: " post ",
	}
	def.Normalize()

	if def.Method != "POST" {
		t.Errorf("Method = %q, want %q", def.Method, "POST")
	}
	if def.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("TimeoutSeconds = %v, want %v", def.TimeoutSeconds, DefaultTimeoutSeconds)
	}
	if def.RetryAttempts != DefaultRetryAttempts {
		t.Errorf("RetryAttempts = %d, want %d", def.RetryAttempts, DefaultRetryAttempts)
	}
	if def.RetryBackoffBase != DefaultRetryBackoffBase {
		t.Errorf("RetryBackoffBase = %d, want %d", def.RetryBackoffBase, DefaultRetryBackoffBase)
	}
}

func TestDefinition_Normalize_EmptyMethod(t *testing.T) {
	def := Definition{ID: "wh1", Name: "n", URL: "https://example.com"}
	def.Normalize()
	if def.Method != DefaultMethod {
		t.Errorf("Method = %q, want %q", def.Method, DefaultMethod)
	}
}

func TestDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Definition)
		wantErr bool
	}{
		{
			name:    "valid",
			mutate:  func(*Definition) {},
			wantErr: false,
		},
		{
			name:    "missing id",
			mutate:  func(d *Definition) { d.ID = "" },
			wantErr: true,
		},
		{
			name:    "missing name",
			mutate:  func(d *Definition) { d.Name = "" },
			wantErr: true,
		},
		{
			name:    "missing url",
			mutate:  func(d *Definition) { d.URL = "" },
			wantErr: true,
		},
		{
			name:    "relative url",
			mutate:  func(d *Definition) { d.URL = "/hook" },
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			mutate:  func(d *Definition) { d.URL = "ftp://example.com/hook" },
			wantErr: true,
		},
		{
			name:    "templated url skips shape check",
			mutate:  func(d *Definition) { d.URL = "{{ state.base_url }}/hook" },
			wantErr: false,
		},
		{
			name:    "unsupported method",
			mutate:  func(d *Definition) { d.Method = "TRACE" },
			wantErr: true,
		},
		{
			name:    "zero timeout",
			mutate:  func(d *Definition) { d.TimeoutSeconds = 0 },
			wantErr: true,
		},
		{
			name:    "negative timeout",
			mutate:  func(d *Definition) { d.TimeoutSeconds = -1 },
			wantErr: true,
		},
		{
			name:    "zero retry attempts",
			mutate:  func(d *Definition) { d.RetryAttempts = 0 },
			wantErr: true,
		},
		{
			name:    "zero backoff base",
			mutate:  func(d *Definition) { d.RetryBackoffBase = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			tt.mutate(&def)
			err := def.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				werr, ok := AsWebhookError(err)
				if !ok {
					t.Fatalf("Validate() returned %T, want *WebhookError", err)
				}
				if werr.Type != ErrorTypeInvalidConfig {
					t.Errorf("Validate() error type = %v, want %v", werr.Type, ErrorTypeInvalidConfig)
				}
			}
		})
	}
}

func TestDefinition_Clone(t *testing.T) {
	def := validDefinition()
	def.Headers = map[string]string{"X-Token": "abc"}
	def.Payload = MappingPayload().Set("key", StringPayload("value"))

	clone := def.Clone()
	clone.Headers["X-Token"] = "changed"
	clone.Payload.Set("key", StringPayload("changed"))

	if def.Headers["X-Token"] != "abc" {
		t.Errorf("original header mutated: %q", def.Headers["X-Token"])
	}
	if def.Payload.Fields["key"].Str != "value" {
		t.Errorf("original payload mutated: %q", def.Payload.Fields["key"].Str)
	}
}

func TestContainsTemplate(t *testing.T) {
	tests := []struct {
		s        string
		expected bool
	}{
		{"https://example.com/hook", false},
		{"{{ state.url }}", true},
		{"prefix {{ x }} suffix", true},
		{"{% if x %}", true},
		{"{ not a marker }", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ContainsTemplate(tt.s); got != tt.expected {
			t.Errorf("ContainsTemplate(%q) = %v, want %v", tt.s, got, tt.expected)
		}
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com/hook", false},
		{"http://example.com:8080/hook?x=1", false},
		{"ftp://example.com", true},
		{"https://", true},
		{"not a url", true},
		{"/relative", true},
	}

	for _, tt := range tests {
		err := ValidateURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}
