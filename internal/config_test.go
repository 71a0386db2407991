package internal

import "testing"

func TestNewDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.App.HTTP.Address() != ":8080" {
		t.Errorf("address = %s", cfg.App.HTTP.Address())
	}
	if !cfg.Expression.Enabled {
		t.Error("expression defaults should be enabled")
	}
}

func TestHTTPConfig_PortRange(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		c := HTTPConfig{Port: port}
		if err := c.Validate(); err == nil {
			t.Errorf("port %d accepted", port)
		}
	}
	c := HTTPConfig{Port: 8080}
	if err := c.Validate(); err != nil {
		t.Errorf("port 8080 rejected: %v", err)
	}
}

func TestAuthConfig(t *testing.T) {
	c := AuthConfig{}
	if err := c.Validate(); err != nil {
		t.Errorf("empty mode should normalise to disabled: %v", err)
	}
	if c.AuthEnabled() {
		t.Error("disabled mode reports enabled")
	}

	c = AuthConfig{Mode: AuthModeToken}
	if err := c.Validate(); err == nil {
		t.Error("token mode without token accepted")
	}

	c = AuthConfig{Mode: AuthModeToken, Token: "s3cret"}
	if err := c.Validate(); err != nil {
		t.Errorf("token mode rejected: %v", err)
	}
	if !c.AuthEnabled() {
		t.Error("token mode reports disabled")
	}

	c = AuthConfig{Mode: "basic"}
	if err := c.Validate(); err == nil {
		t.Error("unknown mode accepted")
	}
}

func TestExpressionConfig(t *testing.T) {
	c := ExpressionConfig{Enabled: false}
	if err := c.Validate(); err != nil {
		t.Errorf("disabled expression config should skip layout checks: %v", err)
	}

	c = ExpressionConfig{Enabled: true}
	if err := c.Validate(); err == nil {
		t.Error("enabled without layouts accepted")
	}

	c = ExpressionConfig{Enabled: true, DateLayout: "2006-01-02", TimeLayout: "15:04"}
	if err := c.Validate(); err != nil {
		t.Errorf("valid expression config rejected: %v", err)
	}
}

func TestVaultConfig_TemplatesPath(t *testing.T) {
	c := VaultConfig{Path: "/vault", TemplatesDir: "templates"}
	if got := c.TemplatesPath(); got != "/vault/templates" {
		t.Errorf("TemplatesPath = %s", got)
	}
	c = VaultConfig{Path: "/vault", TemplatesDir: "/elsewhere/templates"}
	if got := c.TemplatesPath(); got != "/elsewhere/templates" {
		t.Errorf("absolute TemplatesPath = %s", got)
	}
}
