package artifact

import (
	"os"
	"path/filepath"
	"testing"
)

type payload struct {
	Name  string    `json:"name"`
	Sizes []float64 `json:"sizes"`
}

func TestJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.json.zst")
	in := payload{Name: "corpora", Sizes: []float64{0.5, 1.25}}

	if err := SaveJSON(path, in); err != nil {
		t.Fatal(err)
	}
	var out payload
	if err := LoadJSON(path, &out); err != nil {
		t.Fatal(err)
	}
	if out.Name != in.Name || len(out.Sizes) != 2 || out.Sizes[1] != 1.25 {
		t.Errorf("round-trip mismatch: %+v", out)
	}
}

func TestLoadJSONMissing(t *testing.T) {
	var out payload
	if err := LoadJSON(filepath.Join(t.TempDir(), "absent.zst"), &out); err == nil {
		t.Error("expected error for missing artifact")
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestStoreAddCheckoutRemove(t *testing.T) {
	tmp := t.TempDir()
	store := NewStore(filepath.Join(tmp, "cache"))
	src := writeFile(t, tmp, "vectors.txt", "2 2\na 1 0\nb 0 1\n")

	digest, err := store.Add(src)
	if err != nil {
		t.Fatal(err)
	}
	if !store.Has(digest) {
		t.Fatalf("object %s missing after Add", digest)
	}

	// Adding the same content again is a no-op with the same digest.
	again, err := store.Add(src)
	if err != nil {
		t.Fatal(err)
	}
	if again != digest {
		t.Errorf("digest changed on re-add: %s vs %s", again, digest)
	}

	dest := filepath.Join(tmp, "out", "vectors.txt")
	if err := store.Checkout(digest, dest); err != nil {
		t.Fatal(err)
	}
	body, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "2 2\na 1 0\nb 0 1\n" {
		t.Errorf("checkout body mismatch: %q", body)
	}

	digests, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(digests) != 1 || digests[0] != digest {
		t.Errorf("List = %v, want [%s]", digests, digest)
	}

	if err := store.Remove(digest); err != nil {
		t.Fatal(err)
	}
	if store.Has(digest) {
		t.Error("object still present after Remove")
	}
}

func TestHashBytesStable(t *testing.T) {
	if HashBytes([]byte("abc")) != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Error("sha256 of abc mismatch")
	}
}
