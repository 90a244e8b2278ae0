package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendgate/sendgate/config"
	"github.com/sendgate/sendgate/internal/app"
	"github.com/sendgate/sendgate/pkg/logger"
)

func createTestConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		LogLevel:    "error",
		Version:     "test",
		Server: config.ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Database: config.DatabaseConfig{
			User:     "postgres_test",
			Password: "postgres_test",
			Host:     "localhost",
			Port:     5432,
			DBName:   "sendgate_test",
		},
		Redis: config.RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Provider: config.ProviderConfig{
			Kind: config.ProviderKindAPI,
			SES: config.SESProviderConfig{
				Region:      "us-east-1",
				AccessKey:   "AKIATESTACCESSKEY",
				SecretKey:   "test-secret",
				FromAddress: "no-reply@example.com",
			},
		},
		Worker: config.WorkerConfig{
			Concurrency:       2,
			SendRatePerSecond: 10,
		},
		Security: config.SecurityConfig{
			SecretKey:   "test-secret-key",
			OpsUsername: "ops",
		},
	}
}

// TestRunServerMocked starts and stops the app the way runServer does,
// with mocked external dependencies
func TestRunServerMocked(t *testing.T) {
	cfg := createTestConfig()

	// Use a random high port to avoid conflicts
	cfg.Server.Port = 19080 + (time.Now().Nanosecond() % 1000)

	testLogger := logger.NewTestLogger(t)

	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mr := miniredis.RunT(t)
	mockRedis := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	appInstance := app.NewApp(cfg,
		app.WithLogger(testLogger),
		app.WithMockDB(mockDB),
		app.WithMockRedis(mockRedis),
	)
	require.NoError(t, appInstance.Initialize())
	appInstance.SetShutdownTimeout(2 * time.Second)

	serverError := make(chan error, 1)
	go func() {
		serverError <- appInstance.Start()
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.True(t, appInstance.WaitForServerStart(waitCtx))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, appInstance.Shutdown(ctx))

	select {
	case err := <-serverError:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for server to stop")
	}
}

func TestConfigLoading(t *testing.T) {
	// SECRET_KEY is the only hard requirement
	os.Unsetenv("SECRET_KEY")

	_, err := config.Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY")
}

func TestSetupMinimalConfig(t *testing.T) {
	// Setup test environment variables
	os.Setenv("ENVIRONMENT", "test")
	os.Setenv("SERVER_HOST", "localhost")
	os.Setenv("SERVER_PORT", "8081")
	os.Setenv("DB_USER", "postgres_test")
	os.Setenv("DB_PASSWORD", "postgres_test")
	os.Setenv("DB_HOST", "localhost")
	os.Setenv("DB_PORT", "5432")
	os.Setenv("DB_NAME", "sendgate_test")
	os.Setenv("SECRET_KEY", "test-secret-key")
	os.Setenv("SES_ACCESS_KEY", "AKIATEST")
	os.Setenv("SES_SECRET_KEY", "ses-secret")
	os.Setenv("SES_FROM_ADDRESS", "noreply@example.com")

	// Cleanup
	defer func() {
		os.Unsetenv("ENVIRONMENT")
		os.Unsetenv("SERVER_HOST")
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("DB_USER")
		os.Unsetenv("DB_PASSWORD")
		os.Unsetenv("DB_HOST")
		os.Unsetenv("DB_PORT")
		os.Unsetenv("DB_NAME")
		os.Unsetenv("SECRET_KEY")
		os.Unsetenv("SES_ACCESS_KEY")
		os.Unsetenv("SES_SECRET_KEY")
		os.Unsetenv("SES_FROM_ADDRESS")
	}()

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "postgres_test", cfg.Database.User)
	assert.Equal(t, "test-secret-key", cfg.Security.SecretKey)

	// Defaults fill everything not set explicitly
	assert.Equal(t, config.ProviderKindAPI, cfg.Provider.Kind)
	assert.Equal(t, 8, cfg.Worker.Concurrency)
	assert.True(t, cfg.SLO.Enabled)
}
