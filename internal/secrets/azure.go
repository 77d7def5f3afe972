package secrets

import (
	"context"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/keyvault/azsecrets"

	"github.com/R3E-Network/cachegrid/infrastructure/logging"
)

// AzureKeyVaultSource resolves secrets from an Azure Key Vault using the
// ambient default credential chain (managed identity, env, CLI login).
// Secret names are looked up verbatim as Key Vault secret names.
type AzureKeyVaultSource struct {
	client *azsecrets.Client
	log    *logging.Logger
}

// NewAzureKeyVaultSource builds a source against vaultURL (e.g.
// "https://my-vault.vault.azure.net/"). Returns an error if the default
// credential chain cannot be established.
func NewAzureKeyVaultSource(vaultURL string, log *logging.Logger) (*AzureKeyVaultSource, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.New("secrets", "info", "json")
	}
	return &AzureKeyVaultSource{client: client, log: log}, nil
}

// Resolve fetches the latest version of the named secret. A missing or
// access-denied secret is treated as a miss, not an error — callers fall
// through to the next Source in the chain.
func (s *AzureKeyVaultSource) Resolve(ctx context.Context, name string) (string, bool) {
	// Key Vault secret names may not contain underscores; env-style names
	// (CACHEGRID_AUTH_PASSWORD) are translated to vault-style (cachegrid-auth-password).
	vaultName := strings.ToLower(strings.ReplaceAll(name, "_", "-"))
	resp, err := s.client.GetSecret(ctx, vaultName, "", nil)
	if err != nil {
		s.log.Warn(ctx, "key vault secret lookup failed", map[string]interface{}{
			"secret": vaultName,
			"error":  err.Error(),
		})
		return "", false
	}
	if resp.Value == nil {
		return "", false
	}
	return *resp.Value, true
}
