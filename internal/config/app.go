package config

type AppConfig struct {
	Server    ServerConfig
	Log       LogConfig
	Match     MatchConfig
	Identity  IdentityConfig
	Results   ResultsConfig
	Telemetry TelemetryConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	matchCfg, err := LoadMatch()
	if err != nil {
		return AppConfig{}, err
	}
	identityCfg, err := LoadIdentity()
	if err != nil {
		return AppConfig{}, err
	}
	resultsCfg, err := LoadResults()
	if err != nil {
		return AppConfig{}, err
	}
	telemetryCfg, err := LoadTelemetry()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server:    serverCfg,
		Log:       logCfg,
		Match:     matchCfg,
		Identity:  identityCfg,
		Results:   resultsCfg,
		Telemetry: telemetryCfg,
	}, nil
}
