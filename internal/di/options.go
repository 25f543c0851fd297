package di

import "google.golang.org/api/option"

type ConfigPath string
type DisableRateLimit bool

// ClientOptions override how the Google API clients connect. When set,
// application default credentials are not looked up.
type ClientOptions []option.ClientOption

// Option is a function that configures the dependency injection container.
type Option func(*options)

// WithConfigPath loads configuration from a YAML file instead of the environment
func WithConfigPath(path string) Option {
	return func(opts *options) {
		opts.configPath = ConfigPath(path)
	}
}

func WithDisableRateLimit(disable bool) Option {
	return func(opts *options) {
		opts.disableRateLimit = disable
	}
}

// WithClientOptions passes options to every Google API client, e.g. an
// emulator endpoint with option.WithoutAuthentication.
func WithClientOptions(clientOptions ...option.ClientOption) Option {
	return func(opts *options) {
		opts.clientOptions = append(opts.clientOptions, clientOptions...)
	}
}

// WithProviders adds constructor functions to the dependency injection container.
// Each provider should be a constructor function that returns one or more values.
// Providers can declare dependencies as function parameters, which will be
// automatically resolved by the container.
//
// Example:
//
//	WithProviders(
//	    ProvideLogger,
//	    func(config *services.Config) *Thing { return &Thing{Bucket: config.Bucket} },
//	)
func WithProviders(providers ...any) Option {
	return func(opts *options) {
		opts.providers = append(opts.providers, providers...)
	}
}

type options struct {
	configPath       ConfigPath
	clientOptions    ClientOptions
	providers        []any
	disableRateLimit bool
}
