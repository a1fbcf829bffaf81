package config

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

func (s ServiceConfig) IsProduction() bool {
	return s.Environment == "production"
}
