package domain

import "time"

// SourceConfig holds the immutable parameters of one video source.
// A new config is supplied at construction and swapped only via SwitchSource.
type SourceConfig struct {
	Name           string        `yaml:"name"`
	DeviceID       int           `yaml:"device_id"`
	Width          int           `yaml:"width"`
	Height         int           `yaml:"height"`
	FPS            int           `yaml:"fps"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}
