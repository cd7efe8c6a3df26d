package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aotnav/aotnav/internal/store"
)

// newTestStore opens a store over a temp cache directory.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func rec(name, pkg, typeID string) store.ObjectRecord {
	return store.ObjectRecord{
		Name:       name,
		Path:       pkg + "/" + pkg + "/Ax" + typeID + "/" + name + ".xml",
		Package:    pkg,
		TypeID:     typeID,
		ModifiedAt: time.Unix(1700000000, 0).UTC(),
		Size:       128,
	}
}

func mustInsert(t *testing.T, s *store.Store, recs ...store.ObjectRecord) {
	t.Helper()
	if err := s.InsertBulk(recs); err != nil {
		t.Fatalf("insert: %v", err)
	}
}

// --- Open ---

func TestOpen_ProvisionsDatabaseFile(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(dir, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, store.DBFile)); err != nil {
		t.Errorf("database file not provisioned: %v", err)
	}
	if s.HasObjects() {
		t.Error("fresh store should be empty")
	}
	n, err := s.Count()
	if err != nil || n != 0 {
		t.Errorf("Count() = %d, %v; want 0, nil", n, err)
	}
}

func TestOpen_CreatesCacheDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	s, err := store.Open(dir, nil)
	if err != nil {
		t.Fatalf("open with missing dir: %v", err)
	}
	s.Close()
}

func TestOpen_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	mustInsert(t, s, rec("CustTable", "AppSuite", "TABLE"))
	s.Close()

	s2, err := store.Open(dir, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if n, _ := s2.Count(); n != 1 {
		t.Errorf("records lost across reopen: Count() = %d", n)
	}
}

// --- Writes ---

func TestInsert_UpsertsByNaturalKey(t *testing.T) {
	s := newTestStore(t)

	r := rec("CustTable", "AppSuite", "TABLE")
	if err := s.Insert(r); err != nil {
		t.Fatal(err)
	}

	// Same key, new path: replaces rather than duplicates.
	r.Path = "moved/CustTable.xml"
	if err := s.Insert(r); err != nil {
		t.Fatal(err)
	}
	got, err := s.ByName("CustTable")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Path != "moved/CustTable.xml" {
		t.Errorf("upsert failed: %+v", got)
	}

	// Same name, different package: a second row.
	mustInsert(t, s, rec("CustTable", "MyExtensions", "TABLE"))
	got, _ = s.ByName("CustTable")
	if len(got) != 2 {
		t.Errorf("got %d rows for conflicting name, want 2", len(got))
	}
}

func TestInsertBulk_Empty(t *testing.T) {
	s := newTestStore(t)
	if err := s.InsertBulk(nil); err != nil {
		t.Errorf("empty bulk insert should be a no-op, got %v", err)
	}
}

func TestReplace_SwapsWholeSet(t *testing.T) {
	s := newTestStore(t)
	mustInsert(t, s,
		rec("A", "P1", "CLASS"),
		rec("B", "P1", "TABLE"),
	)
	if err := s.Replace([]store.ObjectRecord{rec("C", "P2", "FORM")}); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.ByName("A"); len(got) != 0 {
		t.Errorf("old rows survived replace: %+v", got)
	}
	if got, _ := s.ByName("C"); len(got) != 1 {
		t.Errorf("new row missing after replace: %+v", got)
	}
}

func TestReplace_EmptyBatchClears(t *testing.T) {
	s := newTestStore(t)
	mustInsert(t, s,
		rec("A", "P1", "CLASS"),
		rec("B", "P1", "TABLE"),
	)
	if err := s.Replace(nil); err != nil {
		t.Fatal(err)
	}
	if s.HasObjects() {
		t.Error("store should be empty after replacing with an empty batch")
	}
}

func TestReplaceType_LeavesOtherTypes(t *testing.T) {
	s := newTestStore(t)
	mustInsert(t, s,
		rec("A", "P1", "CLASS"),
		rec("B", "P1", "CLASS"),
		rec("C", "P1", "TABLE"),
	)
	if err := s.ReplaceType("CLASS", []store.ObjectRecord{rec("D", "P1", "CLASS")}); err != nil {
		t.Fatal(err)
	}
	classes, err := s.ByType("CLASS")
	if err != nil {
		t.Fatal(err)
	}
	if len(classes) != 1 || classes[0].Name != "D" {
		t.Errorf("ByType(CLASS) after replace = %+v, want just D", classes)
	}
	if got, _ := s.ByName("C"); len(got) != 1 {
		t.Errorf("TABLE row lost by a CLASS replace: %+v", got)
	}
}

// --- Write atomicity ---

func TestInsertBulk_MidBatchFailureRollsBack(t *testing.T) {
	s := newTestStore(t)
	mustInsert(t, s,
		rec("A", "P1", "CLASS"),
		rec("B", "P1", "TABLE"),
	)

	s.FailInsertsAfter(1)
	defer s.RestoreInserts()

	err := s.InsertBulk([]store.ObjectRecord{
		rec("C", "P2", "FORM"),
		rec("D", "P2", "FORM"),
		rec("E", "P2", "FORM"),
	})
	if err == nil {
		t.Fatal("expected a mid-batch failure")
	}
	// The whole batch rolls back: no partial write, pre-batch rows intact.
	if n, _ := s.Count(); n != 2 {
		t.Errorf("Count() after failed batch = %d, want the pre-batch 2", n)
	}
	if got, _ := s.ByName("C"); len(got) != 0 {
		t.Errorf("partial batch leaked: %+v", got)
	}
}

func TestReplace_MidBatchFailureKeepsOldRows(t *testing.T) {
	s := newTestStore(t)
	mustInsert(t, s,
		rec("A", "P1", "CLASS"),
		rec("B", "P1", "TABLE"),
	)

	s.FailInsertsAfter(1)
	defer s.RestoreInserts()

	err := s.Replace([]store.ObjectRecord{
		rec("C", "P2", "FORM"),
		rec("D", "P2", "FORM"),
	})
	if err == nil {
		t.Fatal("expected a mid-batch failure")
	}
	// The delete rolls back with the insert: readers keep the old set.
	if got, _ := s.ByName("A"); len(got) != 1 {
		t.Errorf("pre-replace rows lost after failed replace: %+v", got)
	}
	if n, _ := s.Count(); n != 2 {
		t.Errorf("Count() after failed replace = %d, want 2", n)
	}
}

// --- Reads ---

func seedLookups(t *testing.T, s *store.Store) {
	t.Helper()
	mustInsert(t, s,
		rec("CustTable", "ApplicationSuite", "TABLE"),
		rec("CustTable", "MyExtensions", "TABLE"),
		rec("CustTableForm", "ApplicationSuite", "FORM"),
		rec("SalesLine", "ApplicationSuite", "TABLE"),
		rec("Sale_Special", "MyExtensions", "CLASS"),
	)
}

func TestByName_CaseInsensitiveOrdered(t *testing.T) {
	s := newTestStore(t)
	seedLookups(t, s)

	got, err := s.ByName("custtable")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].Package != "ApplicationSuite" || got[1].Package != "MyExtensions" {
		t.Errorf("rows not ordered by package: %+v", got)
	}
	if got[0].ModifiedAt.IsZero() || got[0].Size != 128 {
		t.Errorf("round-trip lost fields: %+v", got[0])
	}
}

func TestByNameAndPackage(t *testing.T) {
	s := newTestStore(t)
	seedLookups(t, s)

	got, err := s.ByNameAndPackage("CustTable", "MyExtensions")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Package != "MyExtensions" {
		t.Errorf("got %+v", got)
	}
	none, err := s.ByNameAndPackage("CustTable", "Nowhere")
	if err != nil || len(none) != 0 {
		t.Errorf("expected no rows, got %v, %v", none, err)
	}
}

func TestLikeName_ShortestFirstAndLimit(t *testing.T) {
	s := newTestStore(t)
	seedLookups(t, s)

	got, err := s.LikeName("Cust%", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d rows, want 3", len(got))
	}
	if got[len(got)-1].Name != "CustTableForm" {
		t.Errorf("longest name should sort last: %+v", got)
	}

	limited, _ := s.LikeName("Cust%", 1)
	if len(limited) != 1 {
		t.Errorf("limit ignored: got %d rows", len(limited))
	}
}

func TestLikeName_EscapedUnderscore(t *testing.T) {
	s := newTestStore(t)
	seedLookups(t, s)

	// Unescaped _ is a single-char wildcard, escaped it is literal.
	got, err := s.LikeName(`Sale\_Special`, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Sale_Special" {
		t.Errorf("escape not honored: %+v", got)
	}
}

func TestLikeNameAndType(t *testing.T) {
	s := newTestStore(t)
	seedLookups(t, s)

	got, err := s.LikeNameAndType("Cust%", "TABLE", 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range got {
		if r.TypeID != "TABLE" {
			t.Errorf("type filter leaked: %+v", r)
		}
	}
	if len(got) != 2 {
		t.Errorf("got %d rows, want 2", len(got))
	}
}

func TestByPackageAndByType(t *testing.T) {
	s := newTestStore(t)
	seedLookups(t, s)

	pkg, err := s.ByPackage("ApplicationSuite")
	if err != nil {
		t.Fatal(err)
	}
	if len(pkg) != 3 {
		t.Errorf("ByPackage: got %d rows, want 3", len(pkg))
	}
	// Ordered by type then name: FORM before TABLE.
	if pkg[0].TypeID != "FORM" {
		t.Errorf("ByPackage ordering: first row %+v", pkg[0])
	}

	tables, err := s.ByType("TABLE")
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 3 || tables[0].Name > tables[len(tables)-1].Name {
		t.Errorf("ByType: %+v", tables)
	}

	both, err := s.ByPackageAndType("ApplicationSuite", "TABLE")
	if err != nil {
		t.Fatal(err)
	}
	if len(both) != 2 {
		t.Errorf("ByPackageAndType: got %d rows, want 2", len(both))
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	seedLookups(t, s)

	st, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	want := store.Stats{TotalObjects: 5, UniqueNames: 4, NameConflicts: 1, Packages: 2, Types: 3}
	if st != want {
		t.Errorf("Stats() = %+v, want %+v", st, want)
	}
}

func TestReads_AfterClose(t *testing.T) {
	s := newTestStore(t)
	s.Close()
	if _, err := s.Count(); !errors.Is(err, store.ErrNotReady) {
		t.Errorf("Count after close = %v, want ErrNotReady", err)
	}
	if _, err := s.ByName("X"); !errors.Is(err, store.ErrNotReady) {
		t.Errorf("ByName after close = %v, want ErrNotReady", err)
	}
}

// --- Metadata ---

func TestMetadata_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	if _, _, err := s.GetMetadata("missing"); !errors.Is(err, store.ErrNoMetadata) {
		t.Errorf("missing key = %v, want ErrNoMetadata", err)
	}

	if err := s.PutMetadata(store.MetaLastBuild, []byte("2026-08-26")); err != nil {
		t.Fatal(err)
	}
	val, updated, err := s.GetMetadata(store.MetaLastBuild)
	if err != nil {
		t.Fatal(err)
	}
	if string(val) != "2026-08-26" {
		t.Errorf("value = %q", val)
	}
	if time.Since(updated) > time.Minute {
		t.Errorf("updated_at not stamped: %v", updated)
	}

	// Overwrite under the same key.
	if err := s.PutMetadata(store.MetaLastBuild, []byte("later")); err != nil {
		t.Fatal(err)
	}
	val, _, _ = s.GetMetadata(store.MetaLastBuild)
	if string(val) != "later" {
		t.Errorf("overwrite failed: %q", val)
	}
}

func TestMetadataFresh(t *testing.T) {
	s := newTestStore(t)

	if s.MetadataFresh("missing", time.Hour) {
		t.Error("missing key should not be fresh")
	}
	if err := s.PutMetadata("k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if !s.MetadataFresh("k", time.Hour) {
		t.Error("just-written key should be fresh")
	}
	if s.MetadataFresh("k", -time.Second) {
		t.Error("negative max age can never be fresh")
	}
}
