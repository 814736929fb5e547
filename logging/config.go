package logging

import "time"

type Config struct {
	EnabledSinks     []string       `json:"enabledSinks" yaml:"enabled_sinks"`
	BufferSize       int            `json:"bufferSize" yaml:"buffer_size"`
	MinimumSeverity  Severity       `json:"minimumSeverity" yaml:"minimum_severity"`
	Fields           map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
	JSON             JSONConfig     `json:"json" yaml:"json"`
	Console          ConsoleConfig  `json:"console" yaml:"console"`
	DropWarnInterval time.Duration  `json:"dropWarnInterval" yaml:"drop_warn_interval"`
}

type JSONConfig struct {
	FilePath      string        `json:"filePath" yaml:"file_path"`
	FlushInterval time.Duration `json:"flushInterval" yaml:"flush_interval"`
}

type ConsoleConfig struct {
	UseColor bool `json:"useColor" yaml:"use_color"`
}

func DefaultConfig() Config {
	return Config{
		EnabledSinks:     []string{"console"},
		BufferSize:       512,
		MinimumSeverity:  SeverityInfo,
		DropWarnInterval: 5 * time.Second,
		JSON: JSONConfig{
			FlushInterval: 2 * time.Second,
		},
	}
}

func (c Config) HasSink(name string) bool {
	for _, s := range c.EnabledSinks {
		if s == name {
			return true
		}
	}
	return false
}

func (c Config) CloneFields() map[string]any {
	if len(c.Fields) == 0 {
		return nil
	}
	cloned := make(map[string]any, len(c.Fields))
	for k, v := range c.Fields {
		cloned[k] = v
	}
	return cloned
}
