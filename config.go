package main

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed default-rates.yaml
var defaultRatesYAML []byte

// bracketConfig is one bracket as written in the rates file. Max is omitted on the top bracket.
type bracketConfig struct {
	Min  float64  `yaml:"min"`
	Max  *float64 `yaml:"max,omitempty"`
	Rate float64  `yaml:"rate"` // whole-number percent
}

type jurisdictionConfig struct {
	Name     string          `yaml:"name"`
	Brackets []bracketConfig `yaml:"brackets"`
}

// RatesConfig mirrors the rates YAML file.
type RatesConfig struct {
	TaxYear    int                `yaml:"tax_year"`
	Federal    jurisdictionConfig `yaml:"federal"`
	Provincial jurisdictionConfig `yaml:"provincial"`
	TFSALimits map[int]float64    `yaml:"tfsa_limits"`
}

// TaxTables pairs the federal and provincial schedules used for combined calculations.
type TaxTables struct {
	Federal    BracketTable
	Provincial BracketTable
}

// Rates is the validated, ready-to-use form of RatesConfig.
type Rates struct {
	Tax        TaxTables
	TFSALimits LimitTable
}

// LoadRates reads a rates file, or the embedded defaults when path is empty.
func LoadRates(path string) (*Rates, error) {
	data := defaultRatesYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading rates file: %w", err)
		}
		data = b
	}
	return ParseRates(data)
}

// ParseRates decodes and validates rates YAML.
func ParseRates(data []byte) (*Rates, error) {
	var cfg RatesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing rates: %w", err)
	}
	return cfg.build()
}

func (c RatesConfig) build() (*Rates, error) {
	federal, err := c.Federal.table(c.TaxYear)
	if err != nil {
		return nil, err
	}
	provincial, err := c.Provincial.table(c.TaxYear)
	if err != nil {
		return nil, err
	}
	if len(c.TFSALimits) == 0 {
		return nil, fmt.Errorf("rates: tfsa_limits is empty")
	}
	limits := make(map[int]decimal.Decimal, len(c.TFSALimits))
	for year, amount := range c.TFSALimits {
		if amount < 0 {
			return nil, fmt.Errorf("rates: negative TFSA limit for %d", year)
		}
		limits[year] = decimal.NewFromFloat(amount)
	}
	return &Rates{
		Tax:        TaxTables{Federal: federal, Provincial: provincial},
		TFSALimits: NewLimitTable(limits),
	}, nil
}

func (j jurisdictionConfig) table(year int) (BracketTable, error) {
	brackets := make([]TaxBracket, 0, len(j.Brackets))
	for _, b := range j.Brackets {
		tb := TaxBracket{
			Min:  decimal.NewFromFloat(b.Min),
			Rate: pct(decimal.NewFromFloat(b.Rate)),
		}
		if b.Max == nil {
			tb.Unbounded = true
		} else {
			tb.Max = decimal.NewFromFloat(*b.Max)
		}
		brackets = append(brackets, tb)
	}
	return NewBracketTable(j.Name, year, brackets)
}

func loadEnvFile() map[string]string {
	env := make(map[string]string)
	data, err := os.ReadFile(".env")
	if err != nil {
		return env // Return empty map if .env doesn't exist
	}

	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'')) {
				value = value[1 : len(value)-1]
			}
			env[key] = value
		}
	}
	return env
}

// getEnv prefers the process environment over .env.
func getEnv(key string, env map[string]string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return env[key]
}

func getEnvDefault(key, def string, env map[string]string) string {
	if v := getEnv(key, env); v != "" {
		return v
	}
	return def
}

func loadOrCreateKey(keyName string, env map[string]string) string {
	if key := getEnv(keyName, env); key != "" {
		if len(key) >= 32 {
			return key
		}
		log.Printf("Warning: %s from .env is too short, generating new one", keyName)
	}

	key := generateSessionKey()

	envFile := ".env"
	var envLines []string
	if envContent, err := os.ReadFile(envFile); err == nil {
		envLines = strings.Split(string(envContent), "\n")
	}

	keyFound := false
	for i, line := range envLines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") && strings.HasPrefix(trimmed, keyName+"=") {
			envLines[i] = fmt.Sprintf("%s=%s", keyName, key)
			keyFound = true
			break
		}
	}

	if !keyFound {
		if len(envLines) > 0 && envLines[len(envLines)-1] != "" {
			envLines = append(envLines, "")
		}
		envLines = append(envLines, fmt.Sprintf("%s=%s", keyName, key))
	}

	content := strings.Join(envLines, "\n")
	if !strings.HasSuffix(content, "\n") && len(envLines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(envFile, []byte(content), 0600); err != nil {
		log.Printf("Warning: failed to save %s to .env: %v", keyName, err)
	} else {
		log.Printf("Generated and saved %s to .env", keyName)
	}

	return key
}
