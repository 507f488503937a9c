package main

import (
	"fmt"
	"os"

	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"github.com/meigma/tablepack/registry"
)

// RemoteFlags are shared by push and pull.
type RemoteFlags struct {
	PlainHTTP    bool   `name:"plain-http" help:"Use HTTP instead of HTTPS."`
	DockerConfig string `name:"docker-config" type:"path" help:"Docker config file for credentials (default: ~/.docker/config.json)."`
	Username     string `env:"TABLEPACK_USERNAME" help:"Registry username."`
	Password     string `env:"TABLEPACK_PASSWORD" help:"Registry password."`
	Token        string `env:"TABLEPACK_TOKEN" help:"Registry bearer token."`
}

func (f *RemoteFlags) repository(ref string) (*remote.Repository, error) {
	host, _, _, err := registry.ParseReference(ref)
	if err != nil {
		return nil, err
	}

	var store credentials.Store
	switch {
	case f.Token != "":
		store = registry.StaticToken(host, f.Token)
	case f.Username != "":
		store = registry.StaticCredentials(host, f.Username, f.Password)
	default:
		store, err = registry.DockerCredentialStore(f.DockerConfig)
		if err != nil {
			return nil, err
		}
	}
	return registry.NewRepository(ref,
		registry.WithPlainHTTP(f.PlainHTTP),
		registry.WithCredentialStore(store),
	)
}

// PushCmd pushes an archive file.
type PushCmd struct {
	RemoteFlags `embed:""`

	Archive string   `arg:"" type:"existingfile" help:"Archive to push (raw or zstd)."`
	Ref     string   `arg:"" help:"Target reference, e.g. ghcr.io/acme/tables:v1."`
	Tags    []string `name:"tag" help:"Additional tags."`
}

func (c *PushCmd) Run(rc *runContext) error {
	data, err := os.ReadFile(c.Archive)
	if err != nil {
		return err
	}
	repo, err := c.repository(c.Ref)
	if err != nil {
		return err
	}
	tag := repo.Reference.Reference
	if tag == "" {
		return fmt.Errorf("%w: %q has no tag", registry.ErrInvalidReference, c.Ref)
	}
	desc, err := registry.Push(rc.ctx, repo, tag, data,
		registry.WithTags(c.Tags...),
		registry.WithPushLogger(rc.logger),
	)
	if err != nil {
		return err
	}
	fmt.Printf("Pushed %s@%s\n", c.Ref, desc.Digest)
	return nil
}

// PullCmd pulls an archive to a file.
type PullCmd struct {
	RemoteFlags `embed:""`

	Ref        string `arg:"" help:"Source reference, e.g. ghcr.io/acme/tables:v1."`
	Output     string `short:"o" required:"" type:"path" help:"File to write."`
	Decompress bool   `help:"Write the raw archive even if the layer is zstd-wrapped."`
}

func (c *PullCmd) Run(rc *runContext) error {
	repo, err := c.repository(c.Ref)
	if err != nil {
		return err
	}
	art, err := registry.Pull(rc.ctx, repo, repo.Reference.Reference, registry.WithPullLogger(rc.logger))
	if err != nil {
		return err
	}
	data := art.Data
	if c.Decompress {
		if data, err = art.Archive(); err != nil {
			return err
		}
	}
	if err := os.WriteFile(c.Output, data, 0o600); err != nil {
		return err
	}
	fmt.Printf("Pulled %s (%s) to %s\n", c.Ref, art.Manifest.Digest, c.Output)
	return nil
}
