package domain

import "fmt"

// SESSettings configures the API provider driver
type SESSettings struct {
	Region           string `json:"region"`
	AccessKey        string `json:"access_key"`
	SecretKey        string `json:"secret_key,omitempty"`
	FromAddress      string `json:"from_address"`
	FromName         string `json:"from_name,omitempty"`
	ReplyTo          string `json:"reply_to,omitempty"`
	ConfigurationSet string `json:"configuration_set,omitempty"`
}

// Validate checks that the settings can produce a working client
func (s SESSettings) Validate() error {
	if s.Region == "" {
		return fmt.Errorf("region is required")
	}
	if s.AccessKey == "" || s.SecretKey == "" {
		return fmt.Errorf("access key and secret key are required")
	}
	if s.FromAddress == "" {
		return fmt.Errorf("from address is required")
	}
	return nil
}

// SMTPSettings configures the SMTP provider driver
type SMTPSettings struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	UseTLS      bool   `json:"use_tls"`
	FromAddress string `json:"from_address"`
	FromName    string `json:"from_name,omitempty"`

	// ReturnPathDomain hosts the VERP bounce addresses
	ReturnPathDomain string `json:"return_path_domain"`
}

// Validate checks that the settings can produce a working client
func (s SMTPSettings) Validate() error {
	if s.Host == "" {
		return fmt.Errorf("host is required")
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if s.FromAddress == "" {
		return fmt.Errorf("from address is required")
	}
	return nil
}
