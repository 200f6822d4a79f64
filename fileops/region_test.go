package fileops

import (
	"errors"
	"testing"
)

func TestRegionPatchTooSmall(t *testing.T) {
	path := writeFile(t, []byte("abc"))

	region, err := OpenRegion(path)
	if err != nil {
		t.Fatalf("OpenRegion failed: %v", err)
	}
	defer region.Close()

	if region.Len() != 3 {
		t.Errorf("len = %d, want 3", region.Len())
	}

	if err := region.Patch([]byte("abcd")); !errors.Is(err, ErrRegionTooSmall) {
		t.Errorf("err = %v, want ErrRegionTooSmall", err)
	}
}

func TestRegionGrowNeverShrinks(t *testing.T) {
	path := writeFile(t, []byte("0123456789"))

	region, err := OpenRegion(path)
	if err != nil {
		t.Fatalf("OpenRegion failed: %v", err)
	}

	if err := region.Grow(4); err != nil {
		t.Fatalf("Grow failed: %v", err)
	}
	if region.Len() != 10 {
		t.Errorf("len after Grow(4) = %d, want 10", region.Len())
	}

	if err := region.Grow(16); err != nil {
		t.Fatalf("Grow failed: %v", err)
	}
	if region.Len() != 16 {
		t.Errorf("len after Grow(16) = %d, want 16", region.Len())
	}

	if err := region.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got := readFile(t, path)
	if len(got) != 16 {
		t.Fatalf("file len = %d, want 16", len(got))
	}
	if string(got[:10]) != "0123456789" {
		t.Errorf("prefix = %q, want original contents", got[:10])
	}
}

func TestRegionEmptyFile(t *testing.T) {
	path := writeFile(t, nil)

	region, err := OpenRegion(path)
	if err != nil {
		t.Fatalf("OpenRegion failed: %v", err)
	}

	if region.Len() != 0 {
		t.Errorf("len = %d, want 0", region.Len())
	}

	if err := region.Patch(nil); err != nil {
		t.Errorf("empty patch failed: %v", err)
	}

	if err := region.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
