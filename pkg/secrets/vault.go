package secrets

import (
	"context"
	"errors"
	"fmt"
	"time"

	vaultapi "github.com/hashicorp/vault/api"
	"golang.org/x/time/rate"

	"github.com/leasekeeper/leasekeeper/pkg/lease"
	"github.com/leasekeeper/leasekeeper/pkg/observability/logger"
)

const (
	// DefaultVaultTimeout bounds individual Vault requests.
	DefaultVaultTimeout = 30 * time.Second
	// DefaultVaultRateBurst is the burst size used when request
	// throttling is enabled.
	DefaultVaultRateBurst = 5
)

// VaultConfig configures the Vault-backed client.
type VaultConfig struct {
	// Address is the Vault server URL, for example https://vault:8200.
	Address string
	// Token authenticates the privileged session.
	Token string
	// Namespace selects a Vault Enterprise namespace, optional.
	Namespace string
	// Timeout bounds individual requests.
	Timeout time.Duration
	// RateLimit throttles outgoing requests per second so renewal
	// bursts cannot flood the server. Zero disables throttling.
	RateLimit float64
	// RateBurst is the throttle burst size.
	RateBurst int
}

func (c *VaultConfig) normalize() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultVaultTimeout
	}
	if c.RateBurst <= 0 {
		c.RateBurst = DefaultVaultRateBurst
	}
}

// VaultClient implements SessionClient against a HashiCorp Vault server.
type VaultClient struct {
	client *vaultapi.Client
	log    logger.Logger
}

// NewVaultClient creates a Vault-backed secrets client.
func NewVaultClient(cfg VaultConfig, log logger.Logger) (*VaultClient, error) {
	if cfg.Address == "" {
		return nil, errors.New("vault address is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	cfg.normalize()

	apiConfig := vaultapi.DefaultConfig()
	apiConfig.Address = cfg.Address
	apiConfig.Timeout = cfg.Timeout
	if cfg.RateLimit > 0 {
		apiConfig.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	client, err := vaultapi.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	return &VaultClient{
		client: client,
		log:    log.With("component", "vault-client"),
	}, nil
}

// Read fetches the secret at path with the privileged token.
func (c *VaultClient) Read(ctx context.Context, path string) (*Response, error) {
	return c.read(ctx, c.client, path)
}

// ReadUnauthenticated fetches the secret at path without a token.
func (c *VaultClient) ReadUnauthenticated(ctx context.Context, path string) (*Response, error) {
	clone, err := c.client.Clone()
	if err != nil {
		return nil, TransportError(err)
	}
	clone.ClearToken()
	return c.read(ctx, clone, path)
}

func (c *VaultClient) read(ctx context.Context, client *vaultapi.Client, path string) (*Response, error) {
	secret, err := client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, classifyVaultError(err)
	}
	if secret == nil {
		return nil, NotFoundError(path)
	}

	return &Response{
		Data:  secret.Data,
		Lease: leaseFromVault(secret),
	}, nil
}

// WithSession runs fn with the privileged renew/revoke primitives.
func (c *VaultClient) WithSession(ctx context.Context, fn func(Session) error) error {
	if c.client.Token() == "" {
		return UnauthorizedError(errors.New("no vault token configured"))
	}
	return fn(&vaultSession{client: c.client})
}

// Ping verifies server reachability via the health endpoint.
func (c *VaultClient) Ping(ctx context.Context) error {
	if _, err := c.client.Sys().HealthWithContext(ctx); err != nil {
		return classifyVaultError(err)
	}
	return nil
}

type vaultSession struct {
	client *vaultapi.Client
}

func (s *vaultSession) Renew(ctx context.Context, l lease.Lease) (lease.Lease, error) {
	secret, err := s.client.Sys().RenewWithContext(ctx, l.ID, int(l.Duration.Seconds()))
	if err != nil {
		return lease.None(), classifyVaultError(err)
	}
	if secret == nil {
		return lease.None(), TransportError(fmt.Errorf("empty renewal response for lease %s", l.ID))
	}
	return leaseFromVault(secret), nil
}

func (s *vaultSession) Revoke(ctx context.Context, l lease.Lease) error {
	if err := s.client.Sys().RevokeWithContext(ctx, l.ID); err != nil {
		return classifyVaultError(err)
	}
	return nil
}

func leaseFromVault(secret *vaultapi.Secret) lease.Lease {
	return lease.Lease{
		ID:        secret.LeaseID,
		Duration:  time.Duration(secret.LeaseDuration) * time.Second,
		Renewable: secret.Renewable,
	}
}

func classifyVaultError(err error) error {
	var responseErr *vaultapi.ResponseError
	if errors.As(err, &responseErr) {
		switch responseErr.StatusCode {
		case 404:
			return secretsError(ErrNotFound, fmt.Sprintf("status %d", responseErr.StatusCode))
		case 401, 403:
			return UnauthorizedError(err)
		}
	}
	return TransportError(err)
}
