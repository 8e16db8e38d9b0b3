package main

type config struct {
	BaseURL   string `mapstructure:"base_url"`
	Provider  string `mapstructure:"provider"`
	Secret    string `mapstructure:"secret"`
	AccountID string `mapstructure:"account_id"`
	EventType string `mapstructure:"event_type"`
	Interval  string `mapstructure:"interval"`
}
