package main

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	fn := filepath.Join(dir, name)
	if err := os.WriteFile(fn, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return fn
}

func withEngine(t *testing.T, name string) {
	t.Helper()
	prev := *engine
	*engine = name
	t.Cleanup(func() { *engine = prev })
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	scripts := []string{
		writeScript(t, dir, "duty.lua", `
reset()
send("duty", 0x42)
expect("duty", 0x42)
`),
		writeScript(t, dir, "outputs.lua", `
reset()
send("en_out_lo", 0xa5)
send("en_out_hi", 0x5a)
expect("en_out_lo", 0xa5)
expect("en_out_hi", 0x5a)
`),
	}
	for _, e := range []string{"behavioral", "circuit"} {
		t.Run(e, func(t *testing.T) {
			withEngine(t, e)
			var out syncBuffer
			if err := run(context.Background(), log.New(&out, "spisim: ", 0), scripts); err != nil {
				t.Fatal(err)
			}
			for _, s := range scripts {
				if want := "spisim: " + filepath.Base(s) + ": ok"; !strings.Contains(out.String(), want) {
					t.Errorf("missing %q in output:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestRun_errors(t *testing.T) {
	dir := t.TempDir()
	good := writeScript(t, dir, "good.lua", `reset()`)
	bad := writeScript(t, dir, "bad.lua", `reset(); send("duty", 1); expect("duty", 2)`)

	data := []struct {
		name    string
		engine  string
		scripts []string
		err     string
	}{
		{"no_script", "behavioral", nil, "no script to run"},
		{"engine", "verilog", []string{good}, `unknown engine "verilog"`},
		{"failed_behavioral", "behavioral", []string{good, bad}, "expect duty"},
		{"failed_circuit", "circuit", []string{good, bad}, "expect duty"},
		{"missing", "circuit", []string{filepath.Join(dir, "nope.lua")}, "nope.lua"},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			withEngine(t, d.engine)
			err := run(context.Background(), log.New(&syncBuffer{}, "", 0), d.scripts)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), d.err) {
				t.Fatalf("expected error containing %q, got %q", d.err, err)
			}
		})
	}
}
