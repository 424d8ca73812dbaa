package spritegrid

import (
	"errors"
	"sync"
	"testing"
)

func TestZoneCacheSharesBuilds(t *testing.T) {
	c := NewZoneCache(DefaultPartitionOptions())

	const workers = 32
	maps := make([]*ZoneMap, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			zm, err := c.Get(PalettePico8)
			if err != nil {
				t.Error(err)
				return
			}
			maps[i] = zm
		}()
	}
	wg.Wait()

	for i, zm := range maps {
		if zm != maps[0] {
			t.Fatalf("worker %d got a different zone map", i)
		}
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if maps[0].Key != PalettePico8.Key() {
		t.Errorf("zone map key = %q, want %q", maps[0].Key, PalettePico8.Key())
	}
}

func TestZoneCacheKeyedByContents(t *testing.T) {
	c := NewZoneCache(DefaultPartitionOptions())

	a := mustPaletteHex(t, "p", "RED", "#ff0000", "WHITE", "#ffffff")
	b := mustPaletteHex(t, "p", "RED", "#ff0000", "WHITE", "#ffffff")
	other := mustPaletteHex(t, "p", "RED", "#ee0000", "WHITE", "#ffffff")

	za, err := c.Get(a)
	if err != nil {
		t.Fatal(err)
	}
	zb, err := c.Get(b)
	if err != nil {
		t.Fatal(err)
	}
	if za != zb {
		t.Error("palettes with equal contents should share a zone map")
	}

	zo, err := c.Get(other)
	if err != nil {
		t.Fatal(err)
	}
	if zo == za {
		t.Error("palettes with different contents should not share a zone map")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestZoneCacheForget(t *testing.T) {
	c := NewZoneCache(DefaultPartitionOptions())
	if err := c.Warm(PaletteCC, PaletteMono); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d after Warm, want 2", c.Len())
	}

	first, _ := c.Get(PaletteCC)
	c.Forget(PaletteCC)
	if c.Len() != 1 {
		t.Errorf("Len() = %d after Forget, want 1", c.Len())
	}

	again, err := c.Get(PaletteCC)
	if err != nil {
		t.Fatal(err)
	}
	if again == first {
		t.Error("Get after Forget returned the old zone map")
	}

	c.Forget(nil)
	if c.Len() != 2 {
		t.Errorf("Len() = %d after Forget(nil), want 2", c.Len())
	}
}

func TestZoneCacheOptions(t *testing.T) {
	c := NewZoneCache(PartitionOptions{MergeSpan: 4})
	got := c.Options()
	if got.MergeSpan != 4 || got.MaxPasses != DefaultMaxPasses {
		t.Errorf("Options() = %+v, want MergeSpan 4 and default MaxPasses", got)
	}
}

func TestZoneCacheErrors(t *testing.T) {
	c := NewZoneCache(PartitionOptions{})
	if _, err := c.Get(nil); !errors.Is(err, ErrEmptyPalette) {
		t.Errorf("Get(nil) error = %v, want ErrEmptyPalette", err)
	}

	empty := MustPalette("empty", Entry{Name: Transparent})
	if err := c.Warm(PaletteCC, empty); !errors.Is(err, ErrEmptyPalette) {
		t.Errorf("Warm(empty) error = %v, want ErrEmptyPalette", err)
	}
	if c.Len() != 1 {
		t.Errorf("failed builds must not be cached, Len() = %d", c.Len())
	}
}
