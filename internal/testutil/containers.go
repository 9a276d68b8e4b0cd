// This file starts the database and Redis containers used by integration tests and by
// cmd/testcontainers. Settings come from the environment, usually loaded from a .env file.

package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/localnerve/bigstone-community/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestContainers is a running database and Redis pair on a private network
type TestContainers struct {
	Network        *testcontainers.DockerNetwork
	DBContainer    testcontainers.Container
	RedisContainer testcontainers.Container

	DBType    string
	DBHost    string
	DBPort    string
	RedisAddr string
}

// Terminate stops every started container and removes the network
func (tc *TestContainers) Terminate(t *testing.T) {
	ctx := context.Background()
	if tc.RedisContainer != nil {
		if err := tc.RedisContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate Redis: %v", err)
		}
	}
	if tc.DBContainer != nil {
		if err := tc.DBContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate database: %v", err)
		}
	}
	if tc.Network != nil {
		if err := tc.Network.Remove(ctx); err != nil {
			logMessage(t, "Failed to remove network: %v", err)
		}
	}
}

// Config returns a configuration pointing at the containers
func (tc *TestContainers) Config() *config.Config {
	return &config.Config{
		DBType:            tc.DBType,
		DBHost:            tc.DBHost,
		DBPort:            tc.DBPort,
		DBDatabase:        getEnv("DB_DATABASE", "bigstone"),
		DBUser:            getEnv("DB_USER", "bigstone"),
		DBPassword:        getEnv("DB_PASSWORD", "bigstone"),
		DBConnectionLimit: 5,
		AuthMode:          config.AuthModeLocal,
		RedisAddr:         tc.RedisAddr,
		SessionTTL:        time.Hour,
		StorageBackend:    config.StorageLocal,
		StorageDir:        os.TempDir(),
		StorageBaseURL:    "/files",
	}
}

// CreateAllTestContainers starts the database named by DB_TYPE (postgres, mysql or mariadb)
// and Redis. A nil t logs to stdout and exits on failure.
func CreateAllTestContainers(t *testing.T) (*TestContainers, error) {
	ctx := context.Background()
	tc := &TestContainers{DBType: getEnv("DB_TYPE", "postgres")}

	nw, err := network.New(ctx)
	if err != nil {
		exitWithError(t, err, "Failed to create network")
		return nil, err
	}
	tc.Network = nw

	if err := tc.startDatabase(ctx, t); err != nil {
		tc.Terminate(t)
		exitWithError(t, err, "Failed to start database")
		return nil, err
	}
	if err := tc.startRedis(ctx); err != nil {
		tc.Terminate(t)
		exitWithError(t, err, "Failed to start Redis")
		return nil, err
	}

	logMessage(t, "DB_TYPE=%s DB_HOST=%s DB_PORT=%s", tc.DBType, tc.DBHost, tc.DBPort)
	logMessage(t, "REDIS_ADDR=%s", tc.RedisAddr)
	return tc, nil
}

func (tc *TestContainers) startDatabase(ctx context.Context, t *testing.T) error {
	var (
		image    string
		portName string
		env      map[string]string
		waitFor  wait.Strategy
	)
	dbName := getEnv("DB_DATABASE", "bigstone")
	dbUser := getEnv("DB_USER", "bigstone")
	dbPassword := getEnv("DB_PASSWORD", "bigstone")

	switch tc.DBType {
	case "postgres":
		image = getEnv("DB_IMAGE", "postgres:16-alpine")
		portName = "5432"
		env = map[string]string{
			"POSTGRES_DB":       dbName,
			"POSTGRES_USER":     dbUser,
			"POSTGRES_PASSWORD": dbPassword,
		}
		waitFor = wait.ForLog("database system is ready to accept connections").WithOccurrence(2)
	case "mysql", "mariadb":
		image = getEnv("DB_IMAGE", "mariadb:11")
		portName = "3306"
		env = map[string]string{
			"MYSQL_ROOT_PASSWORD": getEnv("DB_ROOT_PASSWORD", "rootpass"),
			"MYSQL_DATABASE":      dbName,
			"MYSQL_USER":          dbUser,
			"MYSQL_PASSWORD":      dbPassword,
		}
		waitFor = wait.ForLog("ready for connections")
	default:
		return fmt.Errorf("unsupported container database type: %s", tc.DBType)
	}

	tcpPort, err := nat.NewPort("tcp", portName)
	if err != nil {
		return fmt.Errorf("failed to create DB port: %w", err)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{string(tcpPort)},
			Env:          env,
			WaitingFor: wait.ForAll(
				waitFor,
				wait.ForListeningPort(tcpPort),
			).WithDeadline(90 * time.Second),
			Networks: []string{tc.Network.Name},
			NetworkAliases: map[string][]string{
				tc.Network.Name: {"db"},
			},
		},
		Started: true,
	})
	if err != nil {
		return err
	}
	tc.DBContainer = container

	host, err := container.Host(ctx)
	if err != nil {
		return fmt.Errorf("failed to get DB host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, tcpPort)
	if err != nil {
		return fmt.Errorf("failed to get DB port: %w", err)
	}
	tc.DBHost, tc.DBPort = host, mapped.Port()

	if tc.DBType != "postgres" {
		return waitForMySQL(t, fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", dbUser, dbPassword, host, mapped.Port(), dbName))
	}
	return nil
}

// waitForMySQL pings until MariaDB accepts logins, it restarts once during init
func waitForMySQL(t *testing.T, dsn string) error {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open MariaDB connection: %w", err)
	}
	defer db.Close()

	for i := 0; i < 30; i++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(1 * time.Second)
	}
	logMessage(t, "MariaDB not ready after 30 seconds")
	return err
}

func (tc *TestContainers) startRedis(ctx context.Context) error {
	tcpPort, err := nat.NewPort("tcp", "6379")
	if err != nil {
		return fmt.Errorf("failed to create Redis port: %w", err)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        getEnv("REDIS_IMAGE", "redis:7-alpine"),
			ExposedPorts: []string{string(tcpPort)},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
			Networks:     []string{tc.Network.Name},
			NetworkAliases: map[string][]string{
				tc.Network.Name: {"redis"},
			},
		},
		Started: true,
	})
	if err != nil {
		return err
	}
	tc.RedisContainer = container

	host, err := container.Host(ctx)
	if err != nil {
		return fmt.Errorf("failed to get Redis host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, tcpPort)
	if err != nil {
		return fmt.Errorf("failed to get Redis port: %w", err)
	}
	tc.RedisAddr = fmt.Sprintf("%s:%s", host, mapped.Port())
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func exitWithError(t *testing.T, err error, msg string) {
	if t != nil {
		t.Fatalf(msg+": %v", err)
	} else {
		fmt.Printf(msg+": %v\n", err)
		os.Exit(1)
	}
}

func logMessage(t *testing.T, format string, args ...any) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
