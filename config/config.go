/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5001"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	Secure    bool   `json:"secure" envconfig:"BANKLINK_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"BANKLINK_SERVER_SECRET_KEY"`
	Port      string `json:"port" envconfig:"BANKLINK_SERVER_PORT"`
}

type XS2AConfig struct {
	GatewayURL string `json:"gateway_url" envconfig:"BANKLINK_XS2A_GATEWAY_URL"`
	TimeoutSec int    `json:"timeout_sec" envconfig:"BANKLINK_XS2A_TIMEOUT_SEC"`
}

type FinApiConfig struct {
	Endpoint     string `json:"endpoint" envconfig:"BANKLINK_FINAPI_ENDPOINT"`
	ClientID     string `json:"client_id" envconfig:"BANKLINK_FINAPI_CLIENT_ID"`
	ClientSecret string `json:"client_secret" envconfig:"BANKLINK_FINAPI_CLIENT_SECRET"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"BANKLINK_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"BANKLINK_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"BANKLINK_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

// BankConfig is one bank catalogue entry: which protocols the bank speaks
// and which one to prefer.
type BankConfig struct {
	BankCode      string   `json:"bank_code"`
	Name          string   `json:"name"`
	SupportedAPIs []string `json:"supported_apis"`
	PreferredAPI  string   `json:"preferred_api"`
}

type Configuration struct {
	ProjectName string          `json:"project_name" envconfig:"BANKLINK_PROJECT_NAME"`
	Server      ServerConfig    `json:"server"`
	XS2A        XS2AConfig      `json:"xs2a"`
	FinApi      FinApiConfig    `json:"finapi"`
	RateLimit   RateLimitConfig `json:"rate_limit"`
	Banks       []BankConfig    `json:"banks"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("banklink", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called banklink.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Banklink Server"
	}

	if cnf.XS2A.GatewayURL == "" {
		log.Println("Error: XS2A gateway url is empty. It's a required field.")
		return errors.New("xs2a gateway url is required")
	}
	if cnf.XS2A.TimeoutSec == 0 {
		cnf.XS2A.TimeoutSec = 30
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.XS2A.GatewayURL = strings.TrimSpace(cnf.XS2A.GatewayURL)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}

	// Set default cleanup interval if not specified
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
		log.Printf("Warning: Rate limit cleanup interval not specified. Setting default value: %d seconds", defaultCleanup)
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
