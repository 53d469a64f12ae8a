package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/floatchat/floatchat/internal/httpx"
	"github.com/floatchat/floatchat/internal/services"
	"github.com/floatchat/floatchat/internal/widget"
)

type backendConfig interface {
	converser(systemPrompt string, logger *slog.Logger) (widget.Converser, error)
}

// baseBackendConfig contains the common fields for all backend configurations.
type baseBackendConfig struct {
	Provider string `yaml:"provider"`
}

type config struct {
	Port         string        `yaml:"port"`
	SystemPrompt string        `yaml:"systemPrompt"`
	ClearOnClose bool          `yaml:"clearOnClose"`
	Backend      backendConfig `yaml:"backend"`
}

type relayConfig struct {
	baseBackendConfig `yaml:",inline"`
	URL               string `yaml:"url"`
	Path              string `yaml:"path"`
	Shape             string `yaml:"shape"`
	TimeoutSeconds    int    `yaml:"timeoutSeconds"`
	MaxRetries        *int   `yaml:"maxRetries"`
}

type openAIConfig struct {
	baseBackendConfig `yaml:",inline"`
	APIKey            string `yaml:"apiKey"`
	BaseURL           string `yaml:"baseURL"`
	Model             string `yaml:"model"`
}

type ollamaConfig struct {
	baseBackendConfig `yaml:",inline"`
	Host              string `yaml:"host"`
	Model             string `yaml:"model"`
}

func (c *config) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig struct {
		Port         string         `yaml:"port"`
		SystemPrompt string         `yaml:"systemPrompt"`
		ClearOnClose bool           `yaml:"clearOnClose"`
		Backend      map[string]any `yaml:"backend"`
	}

	if err := value.Decode(&rawConfig); err != nil {
		return err
	}

	c.Port = rawConfig.Port
	c.SystemPrompt = rawConfig.SystemPrompt
	c.ClearOnClose = rawConfig.ClearOnClose

	provider, ok := rawConfig.Backend["provider"].(string)
	if !ok {
		return fmt.Errorf("backend provider is required")
	}

	backendRawYAML, err := yaml.Marshal(rawConfig.Backend)
	if err != nil {
		return err
	}

	var backend backendConfig
	switch provider {
	case "relay":
		backend = &relayConfig{}
	case "openai":
		backend = &openAIConfig{}
	case "ollama":
		backend = &ollamaConfig{}
	default:
		return fmt.Errorf("unknown backend provider: %s", provider)
	}

	if err := yaml.Unmarshal(backendRawYAML, backend); err != nil {
		return err
	}

	c.Backend = backend

	return nil
}

func (r relayConfig) converser(_ string, logger *slog.Logger) (widget.Converser, error) {
	if r.URL == "" {
		return nil, fmt.Errorf("url is required")
	}

	shape := services.WireShape(r.Shape)
	switch shape {
	case services.ShapePrompt, services.ShapeMessages:
	case "":
		shape = services.ShapeMessages
	default:
		return nil, fmt.Errorf("unknown wire shape: %s", r.Shape)
	}

	var opts []httpx.Option
	if r.TimeoutSeconds > 0 {
		opts = append(opts, httpx.WithTimeout(time.Duration(r.TimeoutSeconds)*time.Second))
	}
	if r.MaxRetries != nil {
		opts = append(opts, httpx.WithMaxRetries(*r.MaxRetries))
	}
	client := httpx.NewClient(r.URL, logger, opts...)

	path := r.Path
	if path == "" {
		path = "/generate"
	}

	return services.NewRelay(client, path, shape, logger), nil
}

func (o openAIConfig) converser(systemPrompt string, logger *slog.Logger) (widget.Converser, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	apiKey := o.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	return services.NewOpenAI(apiKey, o.BaseURL, o.Model, systemPrompt, logger), nil
}

func (o ollamaConfig) converser(systemPrompt string, logger *slog.Logger) (widget.Converser, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	host := o.Host
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}

	c, err := services.NewOllama(host, o.Model, systemPrompt, logger)
	if err != nil {
		return nil, err
	}
	return c, nil
}
