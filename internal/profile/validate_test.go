package profile

import (
	"os"
	"strings"
	"testing"

	"github.com/matheus3301/wachats/internal/config"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "main", false},
		{"valid with numbers", "work123", false},
		{"valid with hyphen", "my-profile", false},
		{"valid with underscore", "my_profile", false},
		{"valid single char", "a", false},
		{"valid max length", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"empty", "", true},
		{"uppercase", "Main", true},
		{"space", "my profile", true},
		{"dot", "my.profile", true},
		{"too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true},
		{"special chars", "my@profile", true},
		{"slash", "my/profile", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	t.Setenv("WACHATS_HOME", t.TempDir())

	if got := Resolve("work"); got != "work" {
		t.Errorf("Resolve(work) = %q, want work", got)
	}
	if got := Resolve(""); got != DefaultName {
		t.Errorf("Resolve(\"\") without config = %q, want %q", got, DefaultName)
	}

	cfg := &config.Config{DefaultProfile: "staging"}
	if err := config.Save(ConfigPath(), cfg); err != nil {
		t.Fatal(err)
	}
	if got := Resolve(""); got != "staging" {
		t.Errorf("Resolve(\"\") = %q, want staging", got)
	}
}

func TestSettingsServerOverride(t *testing.T) {
	t.Setenv("WACHATS_HOME", t.TempDir())

	p, err := Settings("main", "")
	if err != nil {
		t.Fatalf("Settings() without config error = %v", err)
	}
	if p.ServerURL != config.DefaultServerURL {
		t.Errorf("ServerURL = %q, want default", p.ServerURL)
	}
	p, err = Settings("main", "http://other:9000")
	if err != nil {
		t.Fatal(err)
	}
	if p.ServerURL != "http://other:9000" {
		t.Errorf("ServerURL = %q, want override", p.ServerURL)
	}
}

func TestSettingsInvalidConfig(t *testing.T) {
	t.Setenv("WACHATS_HOME", t.TempDir())
	data := `[profiles.main]
server_url = "https://chats.example.com"
token = "abc"
poll_interval = "3"
`
	if err := os.WriteFile(ConfigPath(), []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	p, err := Settings("main", "")
	if err == nil {
		t.Fatalf("Settings() error = nil, got server %q token %q", p.ServerURL, p.Token)
	}
	if !strings.Contains(err.Error(), "config.toml") {
		t.Errorf("error %q does not name the config file", err)
	}
}

func TestSettingsReadsProfile(t *testing.T) {
	t.Setenv("WACHATS_HOME", t.TempDir())
	cfg := &config.Config{Profiles: map[string]*config.Profile{
		"main": {ServerURL: "https://chats.example.com", Token: "abc"},
	}}
	if err := config.Save(ConfigPath(), cfg); err != nil {
		t.Fatal(err)
	}

	p, err := Settings("main", "")
	if err != nil {
		t.Fatal(err)
	}
	if p.ServerURL != "https://chats.example.com" || p.Token != "abc" {
		t.Errorf("Settings() = %q/%q, want configured server and token", p.ServerURL, p.Token)
	}
}
