package sample

type ConfigSingleton struct {
	instance *ConfigSingleton
	Name     string
}

type EventListener interface {
	OnEvent(payload string) error
}

func NewConfig() *ConfigSingleton {
	return &ConfigSingleton{}
}

func (c *ConfigSingleton) Describe(verbose bool) string {
	if verbose {
		return c.Name
	}
	return "config"
}

var defaultName = "config"

const MaxRetries = 3
