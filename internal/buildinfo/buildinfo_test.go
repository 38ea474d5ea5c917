package buildinfo

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	old := Version
	defer func() { Version = old }()
	Version = "v9.9.9"
	i := Info()
	if i["version"] != "v9.9.9" || i["goVersion"] == "" {
		t.Fatalf("unexpected info: %v", i)
	}
	if !strings.HasPrefix(String(), "v9.9.9") {
		t.Fatalf("String() = %q", String())
	}
}
