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
package redshift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, host, port, database, user, password string) {
	t.Helper()
	t.Setenv(EnvHost, host)
	t.Setenv(EnvPort, port)
	t.Setenv(EnvDatabase, database)
	t.Setenv(EnvUser, user)
	t.Setenv(EnvPassword, password)
}

func TestLoadConfigFromEnv(t *testing.T) {
	setEnv(t, "cluster.example.com", "", "analytics", "agent", "secret")

	cfg, err := LoadConfigFromEnv()

	require.NoError(t, err)
	assert.Equal(t, "cluster.example.com", cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "analytics", cfg.Database)
	assert.Equal(t, DefaultConnectTimeoutSeconds, cfg.ConnectTimeoutSeconds)
}

func TestLoadConfigFromEnvCustomPort(t *testing.T) {
	setEnv(t, "cluster.example.com", "5555", "analytics", "agent", "secret")

	cfg, err := LoadConfigFromEnv()

	require.NoError(t, err)
	assert.Equal(t, 5555, cfg.Port)
}

func TestLoadConfigFromEnvInvalidPort(t *testing.T) {
	setEnv(t, "cluster.example.com", "not-a-port", "analytics", "agent", "secret")

	_, err := LoadConfigFromEnv()

	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvPort)
}

func TestLoadConfigFromEnvEnumeratesAllMissing(t *testing.T) {
	setEnv(t, "", "", "", "agent", "")

	_, err := LoadConfigFromEnv()

	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvHost)
	assert.Contains(t, err.Error(), EnvDatabase)
	assert.Contains(t, err.Error(), EnvPassword)
	assert.NotContains(t, err.Error(), EnvUser)
}

func TestConfigValidate(t *testing.T) {
	err := Config{}.Validate()

	require.Error(t, err)
	for _, field := range []string{"host", "database", "user", "password"} {
		assert.Contains(t, err.Error(), field)
	}
}
