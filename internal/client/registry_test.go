package client

import (
	"context"
	"strings"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/testutil"
)

func TestSignature_Check(t *testing.T) {
	open := DefaultRegistry()["open"]

	tests := []struct {
		n       int
		wantErr bool
	}{
		{1, true},
		{2, false},
		{3, false},
		{4, true},
	}
	for _, tt := range tests {
		err := open.Check("open", tt.n)
		if (err != nil) != tt.wantErr {
			t.Errorf("Check(%d) = %v, wantErr %v", tt.n, err, tt.wantErr)
		}
	}

	if got := open.Usage("open"); got != "open pathname flags [mode]" {
		t.Errorf("Usage() = %q", got)
	}
}

func TestOp(t *testing.T) {
	te := testutil.NewTestEnv(t)
	c := newClient(t, te)

	stat := c.Op("stat")
	if !stat.Known() || stat.Name() != "stat" {
		t.Errorf("stat should be a known operation")
	}

	res, err := stat.Call(context.Background(), "/mnt/file01")
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if res.Operation != "stat" || res.IO() == nil {
		t.Errorf("result = %+v", res)
	}

	if _, err := stat.Call(context.Background()); err == nil || !strings.Contains(err.Error(), "usage: stat pathname") {
		t.Errorf("missing argument error = %v", err)
	}
}

func TestOp_UnknownPassesThrough(t *testing.T) {
	te := testutil.NewTestEnv(t)
	c := newClient(t, te)

	op := c.Op("getxattr")
	if op.Known() {
		t.Error("getxattr should not be registered")
	}

	res, err := op.Call(context.Background(), "/mnt/a", "user.x", "extra")
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	var argc int
	if err := res.IO().Field("argc", &argc); err != nil || argc != 3 {
		t.Errorf("argc = %d (%v), want 3", argc, err)
	}
}

func TestWithRegistry(t *testing.T) {
	te := testutil.NewTestEnv(t)
	c := newClient(t, te, WithRegistry(Registry{"stat": {Args: []string{"pathname", "mask"}}}))

	if _, err := c.Op("stat").Call(context.Background(), "/mnt/a"); err == nil {
		t.Error("custom registry signature should be enforced")
	}
	if c.Op("mkdir").Known() {
		t.Error("custom registry should replace the default")
	}
}
