package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cafesched/internal/model"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRunPrintable(t *testing.T) {
	orders := writeFile(t, "orders.yaml", "- id: 34\n  items: [sandwich, sandwich]\n")
	var out, errOut bytes.Buffer
	if err := run([]string{"-f", orders}, &out, &errOut); err != nil {
		t.Fatalf("run: %v (%s)", err, errOut.String())
	}
	want := "1.\t00:00\tMake sandwich 1\n" +
		"2.\t02:30\tMake sandwich 2\n" +
		"3.\t05:00\tServe Order 34\n" +
		"4.\t06:00\tTake a break\n"
	if out.String() != want {
		t.Fatalf("got\n%q\nwant\n%q", out.String(), want)
	}
}

func TestRunJSONNumberedCSV(t *testing.T) {
	orders := writeFile(t, "orders.csv", "1,sandwich\n2,sandwich;sandwich\n")
	var out, errOut bytes.Buffer
	if err := run([]string{"-f", orders, "-serve", "numbered", "-json"}, &out, &errOut); err != nil {
		t.Fatalf("run: %v", err)
	}
	var tasks []model.Task
	if err := json.Unmarshal(out.Bytes(), &tasks); err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 6 || tasks[4].Description != "Serve sandwiches 2 and 3" || tasks[5].Type != model.Break {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func TestRunConfigDurations(t *testing.T) {
	cfg := writeFile(t, "cafe.yaml", "durations:\n  make_sandwich: 60\n  serve: 30\n")
	orders := writeFile(t, "orders.yml", "orders:\n  - id: 5\n    items: [sandwich]\n")
	var out, errOut bytes.Buffer
	if err := run([]string{"-f", orders, "-config", cfg}, &out, &errOut); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "3.\t01:30\tTake a break") {
		t.Fatalf("custom durations not applied:\n%s", out.String())
	}
}

func TestRunErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	if err := run(nil, &out, &errOut); err == nil {
		t.Fatal("missing -f should fail")
	}
	if err := run([]string{"-f", "orders.txt"}, &out, &errOut); err == nil {
		t.Fatal("unsupported extension should fail")
	}
	if err := run([]string{"-f", writeFile(t, "o.yaml", "[]"), "-serve", "bogus"}, &out, &errOut); err == nil {
		t.Fatal("bad serve style should fail")
	}
}
