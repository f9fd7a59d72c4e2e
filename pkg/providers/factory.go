package providers

import (
	"fmt"

	anthropicprovider "github.com/curielabs/curie/pkg/providers/anthropic"
	"github.com/curielabs/curie/pkg/providers/compat"
	openaiprovider "github.com/curielabs/curie/pkg/providers/openai"

	"github.com/curielabs/curie/pkg/config"
)

// NewProvider constructs an LLMProvider from an endpoint config.
// "compat" speaks the OpenAI wire format over plain HTTP and covers any
// compatible endpoint (Gemini, local inference servers, proxies).
func NewProvider(cfg config.LLMClientConfig) (LLMProvider, error) {
	switch cfg.Type {
	case "openai":
		return openaiprovider.NewProvider(cfg.APIKey, cfg.BaseURL), nil
	case "anthropic":
		return anthropicprovider.NewProvider(cfg.APIKey, cfg.BaseURL), nil
	case "compat", "":
		return compat.NewProvider(cfg.APIKey, cfg.BaseURL), nil
	}
	return nil, fmt.Errorf("unknown LLM client type %q", cfg.Type)
}
