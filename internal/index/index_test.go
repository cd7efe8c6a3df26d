package index

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aotnav/aotnav/internal/catalog"
	"github.com/aotnav/aotnav/internal/discovery"
	"github.com/aotnav/aotnav/internal/store"
)

// --- Fixture ---

// testEnv wires a full indexing stack over temp directories.
type testEnv struct {
	root     string
	cacheDir string
	cat      *catalog.Catalog
	st       *store.Store
	ix       *Indexer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	cacheDir := t.TempDir()

	cat := catalog.New(catalog.StaticSource{}, nil)
	cat.Load()
	st, err := store.Open(cacheDir, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })

	disc := discovery.New(root, cat, nil)
	return &testEnv{
		root:     root,
		cacheDir: cacheDir,
		cat:      cat,
		st:       st,
		ix:       New(root, cacheDir, cat, disc, st, nil),
	}
}

// write creates a file (and its parents) under the codebase root.
func (e *testEnv) write(t *testing.T, rel, content string) {
	t.Helper()
	full := filepath.Join(e.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// seedStandardTree lays out two packages in the double-nested convention.
func (e *testEnv) seedStandardTree(t *testing.T) {
	t.Helper()
	e.write(t, "TestPackage/TestPackage/AxClass/TestClass.xml", "<AxClass/>")
	e.write(t, "TestPackage/TestPackage/AxTable/TestTable.xml", "<AxTable/>")
	e.write(t, "AnotherPackage/AnotherPackage/AxClass/PackageClass.xml", "<AxClass/>")
}

// --- BuildFull ---

func TestBuildFull_IndexesStandardTree(t *testing.T) {
	e := newTestEnv(t)
	e.seedStandardTree(t)

	res, err := e.ix.BuildFull(false)
	if err != nil {
		t.Fatalf("BuildFull: %v", err)
	}
	if res.Indexed != 3 || res.Skipped != 0 || res.NoOp {
		t.Fatalf("result = %+v, want 3 indexed", res)
	}

	got, err := e.st.ByName("TestClass")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("TestClass rows = %d, want 1", len(got))
	}
	r := got[0]
	if r.Package != "TestPackage" || r.TypeID != "CLASS" {
		t.Errorf("record = %+v", r)
	}
	if r.Path != "TestPackage/TestPackage/AxClass/TestClass.xml" {
		t.Errorf("path = %q, want slash-separated codebase-relative path", r.Path)
	}

	stats, err := e.st.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalObjects != 3 || stats.Packages != 2 || stats.Types != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestBuildFull_NoOpWhenAlreadyBuilt(t *testing.T) {
	e := newTestEnv(t)
	e.seedStandardTree(t)

	if _, err := e.ix.BuildFull(false); err != nil {
		t.Fatal(err)
	}
	res, err := e.ix.BuildFull(false)
	if err != nil {
		t.Fatal(err)
	}
	if !res.NoOp || res.Indexed != 0 {
		t.Errorf("second build should be a no-op, got %+v", res)
	}
}

func TestBuildFull_ForceRebuildDropsStaleRows(t *testing.T) {
	e := newTestEnv(t)
	e.seedStandardTree(t)
	if _, err := e.ix.BuildFull(false); err != nil {
		t.Fatal(err)
	}

	// The class file disappears; a forced rebuild must not resurrect it.
	if err := os.Remove(filepath.Join(e.root, "TestPackage", "TestPackage", "AxClass", "TestClass.xml")); err != nil {
		t.Fatal(err)
	}

	res, err := e.ix.BuildFull(true)
	if err != nil {
		t.Fatal(err)
	}
	if res.NoOp {
		t.Fatal("force build must not short-circuit")
	}
	if res.Indexed != 2 {
		t.Errorf("indexed = %d, want 2", res.Indexed)
	}
	if got, _ := e.st.ByName("TestClass"); len(got) != 0 {
		t.Errorf("stale record survived forced rebuild: %+v", got)
	}
}

func TestBuildFull_SkipReasons(t *testing.T) {
	e := newTestEnv(t)
	e.write(t, "P/P/AxClass/Good.xml", "<AxClass/>")
	// 11 MiB file trips the size guard.
	e.write(t, "P/P/AxClass/Huge.xml", strings.Repeat("x", (10<<20)+1))
	// Wrong extension is filtered before any skip counting.
	e.write(t, "P/P/AxClass/notes.txt", "n")

	res, err := e.ix.BuildFull(false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Indexed != 1 {
		t.Errorf("indexed = %d, want 1", res.Indexed)
	}
	if res.Skipped != 1 || res.SkipReasons[SkipOversize] != 1 {
		t.Errorf("skip accounting = %+v", res)
	}
}

func TestBuildFull_NestedSubObjects(t *testing.T) {
	e := newTestEnv(t)
	e.write(t, "P/P/AxClass/Sub/Deep.xml", "<AxClass/>")

	res, err := e.ix.BuildFull(false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Indexed != 1 {
		t.Fatalf("nested file not indexed: %+v", res)
	}
	got, _ := e.st.ByName("Deep")
	if len(got) != 1 || got[0].TypeID != "CLASS" {
		t.Errorf("got %+v", got)
	}
}

func TestBuildFull_RefreshesFlatIndexAndMetadata(t *testing.T) {
	e := newTestEnv(t)
	e.seedStandardTree(t)

	if _, err := e.ix.BuildFull(false); err != nil {
		t.Fatal(err)
	}

	flat, err := store.LoadFlatIndex(e.cacheDir)
	if err != nil {
		t.Fatalf("flat index missing after build: %v", err)
	}
	if len(flat.Objects) != 3 {
		t.Errorf("flat index entries = %d, want 3", len(flat.Objects))
	}
	if flat.Objects["TestClass"].Type != "CLASS" {
		t.Errorf("flat entry = %+v", flat.Objects["TestClass"])
	}

	if _, _, err := e.st.GetMetadata(store.MetaLastBuild); err != nil {
		t.Errorf("build stamp missing: %v", err)
	}
	if _, _, err := e.st.GetMetadata(store.MetaObjectTypes); err != nil {
		t.Errorf("cached type list missing: %v", err)
	}
}

// --- BuildByType ---

func TestBuildByType_OnlyTargetType(t *testing.T) {
	e := newTestEnv(t)
	e.seedStandardTree(t)

	res, err := e.ix.BuildByType("class", false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Indexed != 2 {
		t.Fatalf("indexed = %d, want 2 classes", res.Indexed)
	}
	types, _ := e.st.DistinctTypes()
	if len(types) != 1 || types[0] != "CLASS" {
		t.Errorf("types in store = %v", types)
	}
}

func TestBuildByType_ReplacesOnlyThatType(t *testing.T) {
	e := newTestEnv(t)
	e.seedStandardTree(t)
	if _, err := e.ix.BuildFull(false); err != nil {
		t.Fatal(err)
	}

	// The table row must survive an incremental CLASS rebuild.
	if err := os.Remove(filepath.Join(e.root, "TestPackage", "TestPackage", "AxClass", "TestClass.xml")); err != nil {
		t.Fatal(err)
	}
	e.ix.disc.Invalidate()

	if _, err := e.ix.BuildByType("CLASS", false); err != nil {
		t.Fatal(err)
	}
	if got, _ := e.st.ByName("TestClass"); len(got) != 0 {
		t.Error("removed class still indexed")
	}
	if got, _ := e.st.ByName("TestTable"); len(got) != 1 {
		t.Error("incremental class rebuild dropped the table records")
	}
}

func TestBuildByType_RejectsUnknownType(t *testing.T) {
	e := newTestEnv(t)
	e.seedStandardTree(t)
	if _, err := e.ix.BuildFull(false); err != nil {
		t.Fatal(err)
	}
	before, _ := e.st.Count()

	_, err := e.ix.BuildByType("WIDGET", false)
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("err = %v, want ErrUnknownType", err)
	}
	if !strings.Contains(err.Error(), "WIDGET") || !strings.Contains(err.Error(), "CLASS") {
		t.Errorf("error should name the bad type and the valid set: %v", err)
	}

	after, _ := e.st.Count()
	if before != after {
		t.Error("rejected build must not touch the index")
	}
}

// --- Helpers under test ---

func TestObjectName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"CustTable.xml", "CustTable"},
		{"CustTable.Extension.xml", "CustTable"},
		{"plain", "plain"},
		{".hidden", ".hidden"},
	}
	for _, tc := range cases {
		if got := objectName(tc.in); got != tc.want {
			t.Errorf("objectName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtensionQualifies(t *testing.T) {
	allowed := []string{".xml", ".label.txt"}
	if !extensionQualifies("A.XML", allowed) {
		t.Error("extension check should be case-insensitive")
	}
	if !extensionQualifies("en-us.label.txt", allowed) {
		t.Error("multi-dot extension should qualify")
	}
	if extensionQualifies("notes.txt", allowed) {
		t.Error("plain .txt must not qualify")
	}
}
