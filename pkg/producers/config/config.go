// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/cobaltcore-dev/checksmart/pkg/smartcheck"
)

type GlobalConfig struct {
	NatsURL        string `mapstructure:"nats_url"`
	NodeName       string `mapstructure:"node_name"`
	InstanceID     string `mapstructure:"instance_id"`
	SmartctlPath   string `mapstructure:"smartctl"`
	Sudo           bool   `mapstructure:"sudo"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type ProducerConfig struct {
	Name     string                 `mapstructure:"name"`
	Type     string                 `mapstructure:"type"`
	Settings map[string]interface{} `mapstructure:"settings"`
}

type Config struct {
	Global    GlobalConfig     `mapstructure:"global"`
	Producers []ProducerConfig `mapstructure:"producers"`
}

// LoadConfig reads the file at path. Each call uses a fresh viper instance so
// the file can be reloaded.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	err := v.Unmarshal(&config)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &config, nil
}

// PolicyFromSettings decodes the "policy" section of a producer's settings
// through viper, so the keys follow the mapstructure tags of
// smartcheck.PolicyConfig. Lists may be given as YAML sequences or comma
// separated strings.
func PolicyFromSettings(settings map[string]interface{}) (smartcheck.PolicyConfig, error) {
	var policy smartcheck.PolicyConfig
	section, _ := settings["policy"].(map[string]interface{})
	if len(section) == 0 {
		return policy, nil
	}

	v := viper.New()
	if err := v.MergeConfigMap(section); err != nil {
		return policy, fmt.Errorf("error reading policy: %w", err)
	}
	if err := v.Unmarshal(&policy); err != nil {
		return policy, fmt.Errorf("unable to decode policy: %w", err)
	}

	policy.Exclude = normalizeList(policy.Exclude)
	policy.ExcludeAll = normalizeList(policy.ExcludeAll)
	policy.Raw = normalizeList(policy.Raw)
	policy.Warn = normalizeList(policy.Warn)
	return policy, nil
}

// normalizeList trims entries and drops empty ones left by comma splitting.
func normalizeList(list []string) []string {
	return smartcheck.SplitList(strings.Join(list, ","))
}

func GetStringSetting(settings map[string]interface{}, key, defaultValue string) string {
	if value, ok := settings[key].(string); ok {
		return value
	}
	return defaultValue
}

func GetIntSetting(settings map[string]interface{}, key string, defaultValue int) int {
	switch value := settings[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	}
	return defaultValue
}

func GetBoolSetting(settings map[string]interface{}, key string, defaultValue bool) bool {
	if value, ok := settings[key].(bool); ok {
		return value
	}
	return defaultValue
}

func GetStringSliceSetting(settings map[string]interface{}, key string, defaultValue []string) []string {
	if value, ok := settings[key].([]interface{}); ok {
		var result []string
		for _, v := range value {
			switch s := v.(type) {
			case string:
				result = append(result, s)
			case int:
				result = append(result, fmt.Sprint(s))
			}
		}
		return result
	}
	return defaultValue
}

// GetListSetting accepts either a sequence or a comma separated string.
func GetListSetting(settings map[string]interface{}, key string) []string {
	if s, ok := settings[key].(string); ok {
		return smartcheck.SplitList(s)
	}
	return GetStringSliceSetting(settings, key, nil)
}
