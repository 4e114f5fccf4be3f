package creds

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zalando/go-keyring"

	"github.com/talentops/crmlink/pkg/candidate"
)

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := Config{BaseURL: "https://crm.example.com", Email: "alice@example.com"}

	if err := SaveConfig(path, want); err != nil {
		t.Fatalf("SaveConfig() failed: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() on missing file: %v", err)
	}
	if cfg != (Config{}) {
		t.Errorf("config = %+v, want zero", cfg)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() succeeded on malformed yaml")
	}
}

func TestFileStoreFromEnv(t *testing.T) {
	t.Setenv(EnvEmail, "alice@example.com")
	t.Setenv(EnvPassword, "s3cret")

	got, err := FileStore{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")}.Credentials(context.Background())
	if err != nil {
		t.Fatalf("Credentials() failed: %v", err)
	}
	want := Credentials{Email: "alice@example.com", Password: "s3cret"}
	if got != want {
		t.Errorf("credentials = %+v, want %+v", got, want)
	}
}

func TestFileStoreFromConfigAndKeychain(t *testing.T) {
	t.Setenv(EnvEmail, "")
	t.Setenv(EnvPassword, "")
	keyring.MockInit()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := SaveConfig(path, Config{Email: "alice@example.com"}); err != nil {
		t.Fatal(err)
	}
	if err := SetPassword("alice@example.com", "fromkeychain"); err != nil {
		t.Fatal(err)
	}

	got, err := FileStore{ConfigPath: path}.Credentials(context.Background())
	if err != nil {
		t.Fatalf("Credentials() failed: %v", err)
	}
	want := Credentials{Email: "alice@example.com", Password: "fromkeychain"}
	if got != want {
		t.Errorf("credentials = %+v, want %+v", got, want)
	}
}

func TestFileStoreEnvPasswordOverridesKeychain(t *testing.T) {
	t.Setenv(EnvEmail, "")
	t.Setenv(EnvPassword, "fromenv")
	keyring.MockInit()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := SaveConfig(path, Config{Email: "alice@example.com"}); err != nil {
		t.Fatal(err)
	}

	got, err := FileStore{ConfigPath: path}.Credentials(context.Background())
	if err != nil {
		t.Fatalf("Credentials() failed: %v", err)
	}
	if got.Password != "fromenv" {
		t.Errorf("password = %q, want the environment value", got.Password)
	}
}

func TestFileStoreNoEmail(t *testing.T) {
	t.Setenv(EnvEmail, "")
	t.Setenv(EnvPassword, "")

	_, err := FileStore{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")}.Credentials(context.Background())
	if !errors.Is(err, candidate.ErrNoCredentials) {
		t.Errorf("error = %v, want ErrNoCredentials", err)
	}
}

func TestFileStoreNoKeychainPassword(t *testing.T) {
	t.Setenv(EnvEmail, "")
	t.Setenv(EnvPassword, "")
	keyring.MockInit()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := SaveConfig(path, Config{Email: "alice@example.com"}); err != nil {
		t.Fatal(err)
	}

	_, err := FileStore{ConfigPath: path}.Credentials(context.Background())
	if !errors.Is(err, candidate.ErrNoCredentials) {
		t.Errorf("error = %v, want ErrNoCredentials", err)
	}
}

func TestStaticStore(t *testing.T) {
	got, err := StaticStore{Email: "a@b.c", Password: "p"}.Credentials(context.Background())
	if err != nil {
		t.Fatalf("Credentials() failed: %v", err)
	}
	if got.Email != "a@b.c" || got.Password != "p" {
		t.Errorf("credentials = %+v", got)
	}

	if _, err := (StaticStore{Email: "a@b.c"}).Credentials(context.Background()); !errors.Is(err, candidate.ErrNoCredentials) {
		t.Errorf("error = %v, want ErrNoCredentials", err)
	}
}

func TestSetPasswordValidation(t *testing.T) {
	keyring.MockInit()

	if err := SetPassword("", "p"); err == nil {
		t.Error("SetPassword() accepted an empty email")
	}
	if err := SetPassword("a@b.c", " "); err == nil {
		t.Error("SetPassword() accepted a blank password")
	}
	if err := SetPassword("a@b.c", "p"); err != nil {
		t.Errorf("SetPassword() failed: %v", err)
	}
	if err := DeletePassword("a@b.c"); err != nil {
		t.Errorf("DeletePassword() failed: %v", err)
	}
}
