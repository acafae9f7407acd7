//go:build integration

package dao_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/volunteerhub/volunteerhub-api/internal/db"
)

// newPostgresDB starts a disposable postgres container and returns a
// migrated connection to it.
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)
	pool.MaxWait = 2 * time.Minute

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=volunteerhub",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=volunteerhub",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })
	_ = resource.Expire(300)

	url := fmt.Sprintf("postgres://volunteerhub:secret@%s/volunteerhub?sslmode=disable", resource.GetHostPort("5432/tcp"))

	var conn *gorm.DB
	require.NoError(t, pool.Retry(func() error {
		var err error
		conn, err = db.OpenPostgresWithURL(url)
		return err
	}))

	return conn
}

func TestPostgres_CompleteOnce(t *testing.T) {
	testCompleteOnce(t, newPostgresDB(t))
}

func TestPostgres_RegisterCapacity(t *testing.T) {
	testRegisterCapacity(t, newPostgresDB(t))
}
