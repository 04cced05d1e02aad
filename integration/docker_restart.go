//go:build integration
// +build integration

package integration

import (
	"context"
	"os"
	"os/exec"
	"testing"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func restartShopContainer(t *testing.T, ctx context.Context) {
	t.Helper()

	cmd := exec.CommandContext(ctx, "docker", "compose", "restart", "shop")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("docker compose restart shop failed: %v\n%s", err, string(out))
	}
}
