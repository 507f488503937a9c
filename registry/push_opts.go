package registry

import "log/slog"

// PushOption configures a Push operation.
type PushOption func(*pushConfig)

type pushConfig struct {
	tags        []string
	annotations map[string]string
	logger      *slog.Logger
}

// WithTags applies additional tags to the pushed manifest.
//
// The primary tag is always applied first.
func WithTags(tags ...string) PushOption {
	return func(cfg *pushConfig) {
		cfg.tags = append(cfg.tags, tags...)
	}
}

// WithAnnotations sets custom annotations on the manifest.
//
// The created timestamp and table count are set automatically and can be
// overridden.
func WithAnnotations(annotations map[string]string) PushOption {
	return func(cfg *pushConfig) {
		if cfg.annotations == nil {
			cfg.annotations = make(map[string]string)
		}
		for k, v := range annotations {
			cfg.annotations[k] = v
		}
	}
}

// WithPushLogger sets the logger for Push. A nil logger discards output.
func WithPushLogger(logger *slog.Logger) PushOption {
	return func(cfg *pushConfig) {
		cfg.logger = logger
	}
}
