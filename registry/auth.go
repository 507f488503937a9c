package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

// dockerHubHosts are the addresses Docker Hub credentials may be stored under.
var dockerHubHosts = []string{
	"https://index.docker.io/v1/",
	"index.docker.io",
	"registry-1.docker.io",
	"docker.io",
}

// DockerCredentialStore returns a credential store backed by the Docker
// config file at path and its credential helpers. An empty path means
// ~/.docker/config.json.
func DockerCredentialStore(path string) (credentials.Store, error) {
	var (
		store credentials.Store
		err   error
	)
	if path == "" {
		store, err = credentials.NewStoreFromDocker(credentials.StoreOptions{})
	} else {
		store, err = credentials.NewStore(path, credentials.StoreOptions{})
	}
	if err != nil {
		return nil, fmt.Errorf("load docker credentials: %w", err)
	}
	return &hubAliasStore{Store: store}, nil
}

// StaticCredentials returns a read-only store holding one username and
// password for host.
func StaticCredentials(host, username, password string) credentials.Store {
	return &staticStore{
		host: serverHost(host),
		cred: auth.Credential{Username: username, Password: password},
	}
}

// StaticToken returns a read-only store holding one bearer token for host.
func StaticToken(host, token string) credentials.Store {
	return &staticStore{
		host: serverHost(host),
		cred: auth.Credential{AccessToken: token},
	}
}

var errReadOnlyStore = errors.New("registry: credential store is read-only")

type staticStore struct {
	host string
	cred auth.Credential
}

func (s *staticStore) Get(_ context.Context, serverAddress string) (auth.Credential, error) {
	host := serverHost(serverAddress)
	if host == s.host || (isDockerHub(host) && isDockerHub(s.host)) {
		return s.cred, nil
	}
	return auth.EmptyCredential, nil
}

func (s *staticStore) Put(context.Context, string, auth.Credential) error {
	return errReadOnlyStore
}

func (s *staticStore) Delete(context.Context, string) error {
	return errReadOnlyStore
}

// hubAliasStore retries Docker Hub lookups under each alias Docker may have
// stored the credential with.
type hubAliasStore struct {
	credentials.Store
}

func (s *hubAliasStore) Get(ctx context.Context, serverAddress string) (auth.Credential, error) {
	cred, err := s.Store.Get(ctx, serverAddress)
	if err == nil && !isEmptyCredential(cred) {
		return cred, nil
	}
	if isDockerHub(serverHost(serverAddress)) {
		for _, alias := range dockerHubHosts {
			if alias == serverAddress {
				continue
			}
			if c, aliasErr := s.Store.Get(ctx, alias); aliasErr == nil && !isEmptyCredential(c) {
				return c, nil
			}
		}
	}
	return cred, err
}

// serverHost strips the scheme and path from a server address, keeping the port.
func serverHost(addr string) string {
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	addr, _, _ = strings.Cut(addr, "/")
	return addr
}

// isDockerHub reports whether host[:port] names Docker Hub.
func isDockerHub(hostport string) bool {
	host := hostport
	if !strings.HasPrefix(host, "[") {
		if i := strings.LastIndex(host, ":"); i != -1 {
			host = host[:i]
		}
	}
	switch host {
	case "docker.io", "registry-1.docker.io", "index.docker.io":
		return true
	}
	return false
}

func isEmptyCredential(cred auth.Credential) bool {
	return cred.Username == "" && cred.Password == "" && cred.AccessToken == "" && cred.RefreshToken == ""
}
