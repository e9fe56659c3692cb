//go:build integration

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"blogapi/internal/config"
)

const (
	testAccessKey = "blogapi-test"
	testSecretKey = "blogapi-test-secret"
	testBucket    = "blogapi-test-bucket"
)

func setupTest(ctx context.Context) (testcontainers.Container, *S3Store, func(), error) {
	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:RELEASE.2024-01-16T16-07-38Z",
		ExposedPorts: []string{"9000/tcp"},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     testAccessKey,
			"MINIO_ROOT_PASSWORD": testSecretKey,
		},
		WaitingFor: wait.ForListeningPort("9000/tcp").WithStartupTimeout(60 * time.Second),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to start container: %w", err)
	}

	cleanup := func() {
		if c != nil {
			c.Terminate(ctx)
		}
	}

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "9000")

	cfg := config.S3Config{
		Endpoint:  fmt.Sprintf("http://%s:%s", host, port.Port()),
		Region:    "us-east-1",
		AccessKey: testAccessKey,
		SecretKey: testSecretKey,
		Bucket:    testBucket,
	}

	store, err := NewS3Store(cfg)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("failed to create store: %w", err)
	}

	// minio treats a top-level directory in its data root as a bucket
	if _, _, err := c.Exec(ctx, []string{"mkdir", "-p", "/data/" + testBucket}); err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return c, store, cleanup, nil
}

var testStore *S3Store

func TestMain(m *testing.M) {
	ctx := context.Background()

	_, store, cleanup, err := setupTest(ctx)
	if err != nil {
		panic(err)
	}

	testStore = store
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func TestObjectStorageCRUD(t *testing.T) {
	ctx := context.Background()
	key := "blog/richtext/integration-test.bin"

	content := "decoded inline image bytes"

	// save
	if err := testStore.Save(ctx, key, strings.NewReader(content)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !testStore.Exists(ctx, key) {
		t.Fatal("Exists should report the saved object")
	}

	// retrieve
	rc, err := testStore.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("could not read object: %v", err)
	}
	if string(got) != content {
		t.Errorf("expected %q, got %q", content, string(got))
	}

	// delete
	if err := testStore.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if testStore.Exists(ctx, key) {
		t.Error("object should be gone after Delete")
	}
}
