package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Channel describes one Telegram channel to ingest.
type Channel struct {
	Name  string `yaml:"name"`            // channel username, with or without @
	Title string `yaml:"title,omitempty"` // optional display name override
}

// ChannelsFile is the on-disk shape of the channels config.
type ChannelsFile struct {
	Channels []Channel `yaml:"channels"`
}

// LoadChannels reads the YAML channel list from path.
// An empty channel list is an error: the pipeline has nothing to ingest.
func LoadChannels(path string) ([]Channel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read channels file: %w", err)
	}

	var f ChannelsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse channels file %s: %w", path, err)
	}

	if len(f.Channels) == 0 {
		return nil, fmt.Errorf("channels file %s lists no channels", path)
	}

	for i, ch := range f.Channels {
		if ch.Name == "" {
			return nil, fmt.Errorf("channels file %s: entry %d has no name", path, i)
		}
	}

	return f.Channels, nil
}
