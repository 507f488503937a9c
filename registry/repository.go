package registry

import (
	"context"
	"fmt"
	"net/http"

	"oras.land/oras-go/v2/registry"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
	"oras.land/oras-go/v2/registry/remote/retry"
)

// DefaultUserAgent is sent with every registry request.
const DefaultUserAgent = "tablepack/1.0"

// RepositoryOption configures NewRepository.
type RepositoryOption func(*repositoryConfig)

type repositoryConfig struct {
	plainHTTP bool
	userAgent string
	credStore credentials.Store
}

// WithPlainHTTP enables plain HTTP (no TLS) for the registry.
func WithPlainHTTP(enabled bool) RepositoryOption {
	return func(c *repositoryConfig) {
		c.plainHTTP = enabled
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) RepositoryOption {
	return func(c *repositoryConfig) {
		c.userAgent = ua
	}
}

// WithCredentialStore sets the store credentials are looked up in.
// Without one, requests are anonymous.
func WithCredentialStore(store credentials.Store) RepositoryOption {
	return func(c *repositoryConfig) {
		c.credStore = store
	}
}

// NewRepository returns a remote repository for ref. The tag or digest in
// ref, if any, is available as repo.Reference.Reference.
func NewRepository(ref string, opts ...RepositoryOption) (*remote.Repository, error) {
	cfg := repositoryConfig{userAgent: DefaultUserAgent}
	for _, opt := range opts {
		opt(&cfg)
	}

	repo, err := remote.NewRepository(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidReference, ref, err)
	}
	repo.PlainHTTP = cfg.plainHTTP
	repo.Client = &auth.Client{
		Client: retry.DefaultClient,
		Cache:  auth.NewCache(),
		Credential: func(ctx context.Context, hostport string) (auth.Credential, error) {
			if cfg.credStore == nil {
				return auth.EmptyCredential, nil
			}
			return cfg.credStore.Get(ctx, hostport)
		},
		Header: http.Header{
			"User-Agent": []string{cfg.userAgent},
		},
	}
	return repo, nil
}

// ParseReference splits ref into registry host, repository and tag or digest.
func ParseReference(ref string) (host, repository, reference string, err error) {
	r, err := registry.ParseReference(ref)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	return r.Registry, r.Repository, r.Reference, nil
}
