package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yatube/yatube/config"
	"github.com/yatube/yatube/testutil"
	"github.com/yatube/yatube/utils"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("yatube %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestCLI_GroupsAndCache(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.sqlite3")
	testutil.Setup(t, func(c *config.AppConfig) {
		c.DatabaseURI = dbPath
	})

	run(t, "migrate")
	if out := run(t, "group", "add", "--title", "Cats", "--slug", "cats", "--description", "All about cats"); !strings.Contains(out, "created group") {
		t.Errorf("group add: %q", out)
	}
	if out := run(t, "group", "list"); !strings.Contains(out, "cats") || !strings.Contains(out, "Cats") {
		t.Errorf("group list: %q", out)
	}
	run(t, "group", "delete", "cats")
	if out := run(t, "group", "list"); strings.Contains(out, "cats") {
		t.Errorf("group still listed after delete: %q", out)
	}

	utils.CacheSetBytes("cache:index_page:/", []byte("page"), time.Minute)
	if out := run(t, "cache", "clear"); !strings.Contains(out, "removed 1 cached pages") {
		t.Errorf("cache clear: %q", out)
	}
}
