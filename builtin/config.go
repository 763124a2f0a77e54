package builtin

import (
	"fmt"

	common "github.com/404wolf/livefs/common"
	yamlcomment "github.com/zijiren233/yaml-comment"
)

type configView struct {
	MountPoint     string   `yaml:"mountPoint" lc:"🔒"`
	CoalesceWindow string   `yaml:"coalesceWindow" lc:"content reuse window"`
	EntryTimeout   string   `yaml:"entryTimeout" lc:"kernel lookup cache"`
	AttrTimeout    string   `yaml:"attrTimeout" lc:"kernel attribute cache"`
	DirectIO       bool     `yaml:"directIO"`
	AllowOther     bool     `yaml:"allowOther"`
	AutoUnmount    bool     `yaml:"autoUnmount"`
	GoFuseDebug    bool     `yaml:"goFuseDebug"`
	TickInterval   string   `yaml:"tickInterval"`
	Files          []string `yaml:"files" lc:"builtin files exposed"`
}

// Config renders the effective configuration as commented YAML
type Config struct {
	config *common.LivefsConfig
}

func NewConfig(config *common.LivefsConfig) *Config {
	return &Config{config: config}
}

func (c *Config) Generate() []byte {
	view := configView{
		MountPoint:     c.config.MountPoint,
		CoalesceWindow: c.config.CoalesceWindow.String(),
		EntryTimeout:   c.config.EntryTimeout.String(),
		AttrTimeout:    c.config.AttrTimeout.String(),
		DirectIO:       c.config.DirectIO,
		AllowOther:     c.config.AllowOther,
		AutoUnmount:    c.config.AutoUnmount,
		GoFuseDebug:    c.config.GoFuseDebug,
		TickInterval:   c.config.TickInterval.String(),
		Files:          c.config.Files,
	}
	out, err := yamlcomment.Marshal(view)
	if err != nil {
		return []byte(fmt.Sprintf("# %s\n", common.ReportError("Failed to render config", err)))
	}
	return out
}
