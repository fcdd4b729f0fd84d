package service

import "testing"

func TestValidateLoginForms(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		password   string
		wantFields []string
	}{
		{name: "valid", email: "Ana@Example.com ", password: "secret1"},
		{name: "missing both", wantFields: []string{"email", "password"}},
		{name: "bad email", email: "ana@", password: "secret1", wantFields: []string{"email"}},
		{name: "short password", email: "ana@example.com", password: "12345", wantFields: []string{"password"}},
		{name: "exactly six", email: "ana@example.com", password: "123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generic := ValidateLoginForm(LoginForm{Email: tt.email, Password: tt.password})
			stylist := ValidateStylistLoginForm(StylistLoginForm{Email: tt.email, Password: tt.password})

			for label, got := range map[string]map[string]string{"generic": generic, "stylist": stylist} {
				if len(got) != len(tt.wantFields) {
					t.Fatalf("%s: expected fields %v, got %v", label, tt.wantFields, got)
				}
				for _, f := range tt.wantFields {
					if got[f] == "" {
						t.Fatalf("%s: expected error for %s, got %v", label, f, got)
					}
				}
			}
		})
	}
}

func TestValidateStylistLoginForm_Messages(t *testing.T) {
	got := ValidateStylistLoginForm(StylistLoginForm{Email: "x", Password: "1"})
	if got["email"] != "enter a valid email" || got["password"] != "password must be at least 6 characters" {
		t.Fatalf("unexpected messages %v", got)
	}
}
