package main

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sqxedit/internal/faults"
	"sqxedit/internal/history"
	"sqxedit/internal/lock"
	"sqxedit/internal/sampletable"
	"sqxedit/internal/testsupport"
)

func requireSidecarMatches(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	doc := testsupport.ReadEntry(t, data, testsupport.DocumentEntry)
	sidecar := testsupport.ReadEntry(t, data, testsupport.SidecarEntry)
	sum := sha1.Sum(doc)
	if !bytes.Equal(sidecar, sum[:]) {
		t.Fatalf("sidecar %x does not match document digest %x", sidecar, sum)
	}
}

func TestSetEditsInPlace(t *testing.T) {
	env := setupCLITestEnv(t)
	before, err := os.ReadFile(env.archive)
	if err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"set", env.archive, "--row", "1", "--column", "Sample name", "--value", "Renamed"}, env.configPath)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	requireContains(t, out, "[OK]")

	records := readRecords(t, env.archive)
	if len(records) != 2 || records[0].SampleName != "Renamed" || records[1].SampleName != "Blank1" {
		t.Fatalf("unexpected records %+v", records)
	}
	requireSidecarMatches(t, env.archive)

	after, err := os.ReadFile(env.archive)
	if err != nil {
		t.Fatal(err)
	}
	oldRaw := testsupport.RawEntries(t, before)
	newRaw := testsupport.RawEntries(t, after)
	for _, name := range []string{"SequenceProperties/SequenceProperties", "Methods/M1.amx"} {
		if !bytes.Equal(oldRaw[name], newRaw[name]) {
			t.Fatalf("entry %s was rewritten", name)
		}
	}

	if _, err := os.Stat(lock.PathFor(env.archive)); !os.IsNotExist(err) {
		t.Fatalf("lock file left behind: %v", err)
	}
}

func TestSetSampleTypeAcceptsDisplayLabel(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"set", env.archive, "--row", "2", "--column", "sample_type", "--value", "QC check"}, env.configPath); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := readRecords(t, env.archive)[1].SampleType; got != "Control" {
		t.Fatalf("sample type stored as %q, want Control", got)
	}
}

func TestSetRejectsBadInput(t *testing.T) {
	env := setupCLITestEnv(t)
	before, err := os.ReadFile(env.archive)
	if err != nil {
		t.Fatal(err)
	}

	cases := [][]string{
		{"set", env.archive, "--row", "5", "--column", "vial", "--value", "9"},
		{"set", env.archive, "--row", "0", "--column", "vial", "--value", "9"},
		{"set", env.archive, "--row", "1", "--column", "colour", "--value", "red"},
		{"set", env.archive, "--row", "1", "--column", "sample_type", "--value", "Mystery"},
	}
	for _, args := range cases {
		_, _, err := runCLI(t, args, env.configPath)
		if !errors.Is(err, faults.ErrInvalidEdit) {
			t.Fatalf("%v: expected invalid edit, got %v", args, err)
		}
	}

	after, err := os.ReadFile(env.archive)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("rejected edits must not touch the archive")
	}
}

func TestEditRefusesLockedArchive(t *testing.T) {
	env := setupCLITestEnv(t)

	held, err := lock.Acquire(env.archive)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer held.Release()

	_, _, err = runCLI(t, []string{"rm", env.archive, "--row", "1"}, env.configPath)
	if !errors.Is(err, lock.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestAddWithCopy(t *testing.T) {
	env := setupCLITestEnv(t)
	before, err := os.ReadFile(env.archive)
	if err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"add", env.archive, "--copy", "--at", "1", "sample_name=First", "vial=7", "volume=2.5"}, env.configPath)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	copyPath := filepath.Join(filepath.Dir(env.archive), "run_edited.sqx")
	requireContains(t, out, copyPath)

	records := readRecords(t, copyPath)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	first := records[0]
	if first.SampleName != "First" || first.Vial != "7" || first.Volume != "2.5" || first.SampleType != "Sample" {
		t.Fatalf("unexpected inserted record %+v", first)
	}
	requireSidecarMatches(t, copyPath)

	after, err := os.ReadFile(env.archive)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("--copy must leave the input untouched")
	}
}

func TestAddAppendsDefaults(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"add", env.archive}, env.configPath); err != nil {
		t.Fatalf("add: %v", err)
	}
	records := readRecords(t, env.archive)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[2].Volume != "" || records[2].SampleType != "Sample" {
		t.Fatalf("appended row should carry defaults, got %+v", records[2])
	}
}

func TestRemoveAndMoveToOut(t *testing.T) {
	env := setupCLITestEnv(t)
	moved := filepath.Join(env.baseDir, "out", "moved.sqx")

	if _, _, err := runCLI(t, []string{"mv", env.archive, "--from", "2", "--to", "1", "--out", moved}, env.configPath); err != nil {
		t.Fatalf("mv: %v", err)
	}
	records := readRecords(t, moved)
	if records[0].SampleName != "Blank1" || records[1].SampleName != "Std1" {
		t.Fatalf("unexpected order %+v", records)
	}

	if _, _, err := runCLI(t, []string{"rm", moved, "--row", "1"}, env.configPath); err != nil {
		t.Fatalf("rm: %v", err)
	}
	records = readRecords(t, moved)
	if len(records) != 1 || records[0].SampleName != "Std1" || records[0].Volume != "10" {
		t.Fatalf("unexpected records %+v", records)
	}
	requireSidecarMatches(t, moved)
}

func TestEditAppliesSeveralCells(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"edit", env.archive,
		"--set", "1:vial=11",
		"--set", "2:volume=4",
		"--set", "2:Acq. method=M2",
	}, env.configPath)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	records := readRecords(t, env.archive)
	if records[0].Vial != "11" || records[1].Volume != "4" || records[1].AcquisitionMethod != "M2" {
		t.Fatalf("unexpected records %+v", records)
	}

	// One bad cell rejects the whole batch.
	_, _, err = runCLI(t, []string{"edit", env.archive, "--set", "1:vial=12", "--set", "9:vial=1"}, env.configPath)
	if !errors.Is(err, faults.ErrInvalidEdit) {
		t.Fatalf("expected invalid edit, got %v", err)
	}
	if got := readRecords(t, env.archive)[0].Vial; got != "11" {
		t.Fatalf("partial batch applied: vial %q", got)
	}
}

func TestUIOnlyColumnsDoNotChangeDocument(t *testing.T) {
	env := setupCLITestEnv(t)
	fresh := filepath.Join(env.baseDir, "fresh.sqx")
	if _, _, err := runCLI(t, []string{"new", fresh}, env.configPath); err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, _, err := runCLI(t, []string{"add", fresh, "sample_name=S1", "vial=1"}, env.configPath); err != nil {
		t.Fatalf("add: %v", err)
	}
	before, err := os.ReadFile(fresh)
	if err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"set", fresh, "--row", "1", "--column", sampletable.ColLevel, "--value", "L1"}, env.configPath)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	requireContains(t, out, "unchanged")

	after, err := os.ReadFile(fresh)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(testsupport.ReadEntry(t, before, testsupport.DocumentEntry), testsupport.ReadEntry(t, after, testsupport.DocumentEntry)) {
		t.Fatal("document bytes changed for a display-only edit")
	}
}

func TestEditsAreJournaled(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"set", env.archive, "--row", "1", "--column", "vial", "--value", "5"}, env.configPath); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, _, err := runCLI(t, []string{"set", env.archive, "--row", "9", "--column", "vial", "--value", "5"}, env.configPath); err == nil {
		t.Fatal("expected out of range row to fail")
	}

	store, err := history.Open(env.cfg)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()
	entries, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one journaled save, got %d", len(entries))
	}
	if entries[0].Action != "set" || entries[0].Outcome != history.OutcomeOK || !entries[0].Changed {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
}

func TestEditLogsCarrySessionContext(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Logging.Level = "info"
	env.cfg.Paths.LogDir = filepath.Join(env.baseDir, "logs")
	writeTestConfig(t, env.configPath, env.cfg)

	if _, _, err := runCLI(t, []string{"set", env.archive, "--row", "2", "--column", "vial", "--value", "7"}, env.configPath); err != nil {
		t.Fatalf("set: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(env.cfg.Paths.LogDir, "sqxedit.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var written string
	for _, line := range strings.Split(string(content), "\n") {
		if strings.Contains(line, `"event_type":"archive_written"`) {
			written = line
		}
	}
	if written == "" {
		t.Fatalf("no archive_written record in %s", content)
	}
	for _, want := range []string{`"session_id":"`, `"archive":"` + env.archive + `"`, `"component":"cli"`} {
		requireContains(t, written, want)
	}
}
