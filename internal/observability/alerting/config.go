package alerting

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the YAML notifier configuration loaded at daemon start.
type Config struct {
	Webhooks []WebhookConfig `yaml:"webhooks"`
	Slack    SlackConfig     `yaml:"slack"`
}

// WebhookConfig describes one generic webhook target.
type WebhookConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// SlackConfig describes the optional Slack incoming webhook.
type SlackConfig struct {
	WebhookURL string `yaml:"webhookUrl"`
}

// LoadConfig reads a YAML notifier configuration file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("alerting config path cannot be empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read alerting config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal alerting config: %w", err)
	}
	return cfg, nil
}

// BuildDispatcher constructs a fan-out dispatcher from the configuration.
// An empty configuration yields a dispatcher with no notifiers, which is
// valid and silent.
func BuildDispatcher(cfg Config) (*FanoutDispatcher, error) {
	notifiers := make([]Notifier, 0, len(cfg.Webhooks)+1)
	for _, hook := range cfg.Webhooks {
		notifier, err := NewWebhookNotifier(hook.Name, hook.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("webhook %q: %w", hook.Name, err)
		}
		notifiers = append(notifiers, notifier)
	}
	if cfg.Slack.WebhookURL != "" {
		notifier, err := NewSlackNotifier(cfg.Slack.WebhookURL, nil)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, notifier)
	}
	return NewFanout(notifiers...), nil
}
