package llm

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

// Secret names consulted by the invocation core. Resolution mechanics live
// behind SecretResolver.
const (
	SecretAnthropicAPIKey  = "ANTHROPIC_API_KEY"
	SecretOpenAIAPIKey     = "OPENAI_API_KEY"
	SecretOllamaAPIBase    = "OLLAMA_API_BASE"
	SecretGCPCredentials64 = "GCP_CREDENTIALS_64"
)

// SecretResolver resolves named secrets. Implementations return false when
// the secret is absent or empty.
type SecretResolver interface {
	Get(name string) (string, bool)
}

// EnvResolver resolves secrets from the process environment, loading a .env
// file once if one is present in the working directory.
type EnvResolver struct {
	once sync.Once
}

func (r *EnvResolver) Get(name string) (string, bool) {
	r.once.Do(func() {
		_ = godotenv.Load()
	})
	v := os.Getenv(name)
	return v, v != ""
}

// credentialMu serializes credential scopes across concurrent invocations in
// the same process: the scope mutates shared environment state.
var credentialMu sync.Mutex

// acquireCredentialScope pushes provider credentials into the process
// environment for the duration of one generic-adapter call: the Anthropic
// API key, and GCP service-account credentials materialized from their
// base64-encoded secret into a temporary application-default-credentials
// file. The returned release func restores prior environment values and
// removes the temporary file; it must be called on every exit path.
//
// The scope is non-reentrant. Invocations needing different credentials
// must serialize through it.
func acquireCredentialScope(secrets SecretResolver, log *slog.Logger) (release func(), err error) {
	credentialMu.Lock()

	var restores []func()
	var credFile string
	release = func() {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
		if credFile != "" {
			os.Remove(credFile)
		}
		credentialMu.Unlock()
	}

	if key, ok := secrets.Get(SecretAnthropicAPIKey); ok {
		restores = append(restores, pushEnv(SecretAnthropicAPIKey, key))
	}

	if encoded, ok := secrets.Get(SecretGCPCredentials64); ok {
		decoded, decodeErr := base64.StdEncoding.DecodeString(encoded)
		if decodeErr != nil {
			release()
			return nil, &ConfigError{
				Field:  SecretGCPCredentials64,
				Reason: "failed to decode base64 GCP credentials",
				Err:    decodeErr,
			}
		}

		f, tmpErr := os.CreateTemp("", "llm-gcp-credentials-*.json")
		if tmpErr != nil {
			release()
			return nil, fmt.Errorf("failed to materialize GCP credentials: %w", tmpErr)
		}
		if _, writeErr := f.Write(decoded); writeErr != nil {
			f.Close()
			os.Remove(f.Name())
			release()
			return nil, fmt.Errorf("failed to materialize GCP credentials: %w", writeErr)
		}
		if closeErr := f.Close(); closeErr != nil {
			os.Remove(f.Name())
			release()
			return nil, fmt.Errorf("failed to materialize GCP credentials: %w", closeErr)
		}

		credFile = f.Name()
		restores = append(restores, pushEnv("GOOGLE_APPLICATION_CREDENTIALS", credFile))
		log.Debug("materialized GCP credentials", "path", credFile)
	}

	return release, nil
}

// pushEnv sets an environment variable and returns a func restoring its
// prior value (or prior absence).
func pushEnv(name, value string) func() {
	prior, had := os.LookupEnv(name)
	os.Setenv(name, value)
	return func() {
		if had {
			os.Setenv(name, prior)
		} else {
			os.Unsetenv(name)
		}
	}
}
