package suite

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
)

// containerTTL is a hard kill deadline in seconds, so a crashed test run
// cannot leak containers.
const (
	containerTTL = 120
	startTimeout = 120 * time.Second
)

const (
	storePort  = "6379/tcp"
	storeImage = "redis"
	storeTag   = "alpine"
)

// Suite wires a repository test to a disposable redis container. The
// container lives for one test and is purged on cleanup.
type Suite struct {
	*testing.T
	Logger *slog.Logger

	Storage *redis.Client
}

func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dockerPool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("could not connect to docker: %v", err)
	}

	container, err := dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: storeImage,
		Tag:        storeTag,
	}, func(config *docker.HostConfig) {
		// the container removes itself once stopped
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("could not start redis container: %v", err)
	}

	// Expire never returns an error
	_ = container.Expire(containerTTL)

	storeAddr := container.GetHostPort(storePort)

	// retry with backoff until redis inside the container accepts connections
	dockerPool.MaxWait = startTimeout

	var client *redis.Client
	if err = dockerPool.Retry(func() error {
		client = redis.NewClient(&redis.Options{Addr: storeAddr})
		return client.Ping(ctx).Err()
	}); err != nil {
		if err = dockerPool.Purge(container); err != nil {
			t.Fatalf("could not purge redis container: %v", err)
		}

		t.Fatalf("could not connect to redis: %v", err)
	}

	// every test starts from an empty keyspace
	if err = client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("could not flush redis: %v", err)
	}

	t.Cleanup(func() {
		t.Helper()

		if err = dockerPool.Purge(container); err != nil {
			t.Fatalf("could not purge redis container: %v", err)
		}
	})

	return ctx, &Suite{
		T:       t,
		Logger:  logger,
		Storage: client,
	}
}
