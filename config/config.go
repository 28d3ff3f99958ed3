package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"time"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

func New(loc string) (*Config, error) {
	var c Config

	f, err := os.Open(loc)
	if err != nil {
		log.Println("Config error", err)
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&c); err != nil {
		log.Println("Config error", err)
		return nil, err
	}

	if c.TokenSecret == "" || c.DBName == "" {
		return nil, ErrInvalidConfig
	}

	if c.TokenAge == 0 {
		c.TokenAge = 6
	}

	return &c, nil
}

type Config struct {
	Host    string `json:"host"`
	Port    string `json:"port"`
	Sandbox bool   `json:"sandbox"`

	DBPath string `json:"dbPath"`
	DBName string `json:"dbName"`

	TokenSecret string        `json:"tokenSecret"`
	TokenAge    time.Duration `json:"tokenAge"` // In hours

	// Seeded at startup when both are set; admin accounts never come from
	// the signup surface.
	AdminEmail string `json:"adminEmail"`
	AdminPass  string `json:"adminPass"`

	// When set, bid placement consults the subscription flag on the
	// responder's user row. The billing collaborator owns the real policy.
	RequireSubscription bool `json:"requireSubscription"`

	Bucket struct {
		User        string   `json:"user"`
		Login       string   `json:"login"`
		Deal        string   `json:"deal"`
		Bid         string   `json:"bid"`
		Negotiation string   `json:"negotiation"`
		Connection  string   `json:"connection"`
		All         []string `json:"all"`
	} `json:"bucket"`
}

// AllBuckets returns every bucket this process expects at startup,
// including the index bucket used for id generation.
func (c *Config) AllBuckets() []string {
	if len(c.Bucket.All) != 0 {
		return append([]string{"index"}, c.Bucket.All...)
	}
	return []string{"index", c.Bucket.User, c.Bucket.Login, c.Bucket.Deal,
		c.Bucket.Bid, c.Bucket.Negotiation, c.Bucket.Connection}
}
