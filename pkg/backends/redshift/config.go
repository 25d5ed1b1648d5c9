// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package redshift provides an Amazon Redshift backend implementation over
// the PostgreSQL wire protocol. Each query executes on its own short-lived
// connection with a server-side statement timeout.
package redshift

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Environment variables consumed by LoadConfigFromEnv.
const (
	EnvHost     = "REDSHIFT_HOST"
	EnvPort     = "REDSHIFT_PORT"
	EnvDatabase = "REDSHIFT_DATABASE"
	EnvUser     = "REDSHIFT_USER"
	EnvPassword = "REDSHIFT_PASSWORD"
)

// DefaultPort is the standard Redshift port.
const DefaultPort = 5439

// DefaultConnectTimeoutSeconds bounds connection establishment.
const DefaultConnectTimeoutSeconds = 10

// Config holds configuration for the Redshift backend.
type Config struct {
	// Host is the Redshift cluster endpoint
	Host string

	// Port is the cluster port (default: 5439)
	Port int

	// Database is the database to connect to
	Database string

	// User for Redshift authentication
	User string

	// Password for Redshift authentication
	Password string

	// ConnectTimeoutSeconds bounds connection establishment (default: 10)
	ConnectTimeoutSeconds int

	// Logger for backend operations
	Logger *zap.Logger
}

// Validate checks that required fields are present and reports every
// missing field in a single error.
func (c Config) Validate() error {
	missing := make([]string, 0, 4)
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.Database == "" {
		missing = append(missing, "database")
	}
	if c.User == "" {
		missing = append(missing, "user")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required Redshift configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// LoadConfigFromEnv builds a Config from REDSHIFT_* environment variables.
// The error enumerates every missing required variable so the operator can
// fix them all at once.
func LoadConfigFromEnv() (Config, error) {
	cfg := Config{
		Host:                  os.Getenv(EnvHost),
		Port:                  DefaultPort,
		Database:              os.Getenv(EnvDatabase),
		User:                  os.Getenv(EnvUser),
		Password:              os.Getenv(EnvPassword),
		ConnectTimeoutSeconds: DefaultConnectTimeoutSeconds,
	}

	if portStr := os.Getenv(EnvPort); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid %s value %q: must be a port number", EnvPort, portStr)
		}
		cfg.Port = port
	}

	missing := make([]string, 0, 4)
	if cfg.Host == "" {
		missing = append(missing, EnvHost)
	}
	if cfg.Database == "" {
		missing = append(missing, EnvDatabase)
	}
	if cfg.User == "" {
		missing = append(missing, EnvUser)
	}
	if cfg.Password == "" {
		missing = append(missing, EnvPassword)
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// DSN builds the lib/pq connection string. TLS is mandatory; Redshift
// clusters reject plaintext connections when require_ssl is set.
func (c Config) DSN() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	timeout := c.ConnectTimeoutSeconds
	if timeout == 0 {
		timeout = DefaultConnectTimeoutSeconds
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=require connect_timeout=%d",
		c.Host, port, c.Database, c.User, c.Password, timeout)
}
