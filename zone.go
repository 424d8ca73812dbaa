package spritegrid

import (
	"fmt"
	"math"
	"sort"
)

// Partition defaults.
const (
	// DefaultMergeSpan is the hue arc, in degrees, below which two colliding
	// zones are merged rather than blocked.
	DefaultMergeSpan = 10

	// DefaultMaxPasses bounds both expansion loops.
	DefaultMaxPasses = 1000
)

// PartitionOptions tunes zone map construction.
type PartitionOptions struct {
	// MergeSpan is the arc length in degrees under which two colliding hue
	// zones are merged. Both zones must be smaller than this.
	MergeSpan int
	// MaxPasses caps the hue and luminance expansion loops. Reaching it is
	// logged and reported through ZoneMap.Converged.
	MaxPasses int
}

// DefaultPartitionOptions returns the default partition options.
func DefaultPartitionOptions() PartitionOptions {
	return PartitionOptions{
		MergeSpan: DefaultMergeSpan,
		MaxPasses: DefaultMaxPasses,
	}
}

func (o PartitionOptions) withDefaults() PartitionOptions {
	if o.MergeSpan <= 0 {
		o.MergeSpan = DefaultMergeSpan
	}
	if o.MaxPasses <= 0 {
		o.MaxPasses = DefaultMaxPasses
	}
	return o
}

// LuminanceZone is the lightness range, within one hue zone, that classifies
// to Color. Start and End are inclusive percentages.
type LuminanceZone struct {
	Color     PaletteColor
	Luminance int
	Start     int
	End       int

	// ladder marks the shadow and light anchors shared by every hue zone.
	ladder bool
}

// Contains reports whether l falls inside the zone.
func (z LuminanceZone) Contains(l int) bool {
	return l >= z.Start && l <= z.End
}

// HueZone is an arc of the hue circle, inclusive on both ends. The arc runs
// clockwise from Start to End and wraps through 0 when Start > End.
type HueZone struct {
	Start     int
	End       int
	Luminance []LuminanceZone
}

// Contains reports whether the integer angle falls inside the arc.
func (z HueZone) Contains(angle int) bool {
	if z.Start <= z.End {
		return angle >= z.Start && angle <= z.End
	}
	return angle >= z.Start || angle <= z.End
}

// Span returns the clockwise arc length from Start to End in degrees.
func (z HueZone) Span() int {
	return mod360(z.End - z.Start)
}

func (z HueZone) full() bool {
	return z.Span() == 359
}

// ZoneMap is the hue/luminance partition built from one palette. It is
// read-only once built.
type ZoneMap struct {
	// Key is the palette key the map was built from.
	Key   string
	Zones []HueZone

	HuePasses       int
	LuminancePasses int
	// Converged is false when an expansion loop stopped at its pass cap.
	Converged bool
}

func mod360(a int) int {
	a %= 360
	if a < 0 {
		a += 360
	}
	return a
}

// roundHue maps a hue in degrees to the integer domain [0,360).
func roundHue(h float64) int {
	return mod360(int(math.Round(h)))
}

// roundLuminance maps a lightness percentage to the integer domain [0,100].
func roundLuminance(l float64) int {
	return max(0, min(100, int(math.Round(l))))
}

type anchor struct {
	entry Entry
	hue   int
	lum   int
}

// BuildZoneMap partitions the hue circle and lightness range between the
// palette's colors.
//
// The darkest and lightest palette colors form a shadow/light ladder shared
// by every hue zone. Every color seeds a zone at its own hue, except a gray
// ladder color whose luminance no other color shares: the ladder alone
// already reaches it from every hue. Zones grow one degree per side per pass
// until they meet, merging when two small zones collide unless the merge
// would drop a color. Each zone's lightness anchors then grow the same way to
// cover [0,100].
//
// Two colors that round to the same hue and luminance cannot both be
// reached; the one listed first wins.
func BuildZoneMap(p *Palette, opts PartitionOptions) (*ZoneMap, error) {
	if p == nil || p.Len() == 0 {
		return nil, ErrEmptyPalette
	}
	opts = opts.withDefaults()

	anchors := make([]anchor, 0, p.Len())
	for _, e := range p.entries {
		hsl := RGBToHSL(e.Color.R, e.Color.G, e.Color.B)
		anchors = append(anchors, anchor{
			entry: e,
			hue:   roundHue(hsl.H),
			lum:   roundLuminance(hsl.L),
		})
	}

	shadow, light := 0, 0
	for i, a := range anchors {
		if a.lum < anchors[shadow].lum {
			shadow = i
		}
		if a.lum >= anchors[light].lum {
			light = i
		}
	}

	ladder := func(i int) LuminanceZone {
		a := anchors[i]
		return LuminanceZone{
			Color:     a.entry.Name,
			Luminance: a.lum,
			Start:     a.lum,
			End:       a.lum,
			ladder:    true,
		}
	}

	ladderOnly := func(i int) bool {
		if i != shadow && i != light {
			return false
		}
		c := anchors[i].entry.Color
		if c.R != c.G || c.G != c.B {
			return false
		}
		for j, a := range anchors {
			if j != i && a.lum == anchors[i].lum {
				return false
			}
		}
		return true
	}

	var zones []HueZone
	for i, a := range anchors {
		if ladderOnly(i) {
			continue
		}

		own := LuminanceZone{
			Color:     a.entry.Name,
			Luminance: a.lum,
			Start:     a.lum,
			End:       a.lum,
		}
		lums := mergeLuminance([]LuminanceZone{own, ladder(shadow), ladder(light)})

		merged := false
		for j := range zones {
			if zones[j].Start == a.hue {
				zones[j].Luminance = mergeLuminance(append(zones[j].Luminance, lums...))
				merged = true
				break
			}
		}
		if !merged {
			zones = append(zones, HueZone{Start: a.hue, End: a.hue, Luminance: lums})
		}
	}

	if len(zones) == 0 {
		zones = []HueZone{{
			Start:     0,
			End:       359,
			Luminance: mergeLuminance([]LuminanceZone{ladder(shadow), ladder(light)}),
		}}
	}

	zm := &ZoneMap{Key: p.Key()}

	var hueConverged bool
	zones, zm.HuePasses, hueConverged = expandHue(zones, opts)
	if !hueConverged {
		Logger().Warn("spritegrid: hue expansion stopped at pass cap",
			"palette", p.Key(), "passes", zm.HuePasses, "zones", len(zones))
	}

	lumConverged := true
	for i := range zones {
		passes, ok := expandLuminance(zones[i].Luminance, opts.MaxPasses)
		zm.LuminancePasses = max(zm.LuminancePasses, passes)
		if !ok {
			lumConverged = false
			Logger().Warn("spritegrid: luminance expansion stopped at pass cap",
				"palette", p.Key(), "zone_start", zones[i].Start,
				"zone_end", zones[i].End, "passes", passes)
		}
	}

	zm.Zones = zones
	zm.Converged = hueConverged && lumConverged

	Logger().Debug("spritegrid: zone map built", "palette", p.Key(),
		"zones", len(zones), "hue_passes", zm.HuePasses,
		"luminance_passes", zm.LuminancePasses, "converged", zm.Converged)

	return zm, nil
}

// expandHue grows every zone one degree per side per pass until no zone can
// move. Zones are updated in place so two zones never claim the same degree.
func expandHue(zones []HueZone, opts PartitionOptions) ([]HueZone, int, bool) {
	passes := 0
	for passes < opts.MaxPasses {
		passes++
		changed := false

		for i := 0; i < len(zones); i++ {
			for side := 0; side < 2; side++ {
				if zones[i].full() {
					break
				}

				var cand int
				if side == 0 {
					cand = mod360(zones[i].Start - 1)
				} else {
					cand = mod360(zones[i].End + 1)
				}

				j := zoneContaining(zones, cand, i)
				if j < 0 {
					if side == 0 {
						zones[i].Start = cand
					} else {
						zones[i].End = cand
					}
					changed = true
					continue
				}

				if zones[i].Span() < opts.MergeSpan && zones[j].Span() < opts.MergeSpan &&
					!mergeDropsColor(zones[i], zones[j]) {
					zones[i] = mergeHueZones(zones[i], zones[j])
					zones = append(zones[:j], zones[j+1:]...)
					if j < i {
						i--
					}
					changed = true
				}
			}
		}

		if !changed {
			return zones, passes, true
		}
	}

	return zones, passes, false
}

func zoneContaining(zones []HueZone, angle int, skip int) int {
	for j, z := range zones {
		if j != skip && z.Contains(angle) {
			return j
		}
	}
	return -1
}

// mergeDropsColor reports whether two zones hold different palette colors
// at the same luminance, so a merged zone would lose one of them.
func mergeDropsColor(a, b HueZone) bool {
	for _, x := range a.Luminance {
		if x.ladder {
			continue
		}
		for _, y := range b.Luminance {
			if !y.ladder && x.Luminance == y.Luminance && x.Color != y.Color {
				return true
			}
		}
	}
	return false
}

// mergeHueZones joins two touching zones into the smallest arc enclosing both.
func mergeHueZones(a, b HueZone) HueZone {
	candidates := []HueZone{
		{Start: a.Start, End: b.End},
		{Start: b.Start, End: a.End},
		{Start: a.Start, End: a.End},
		{Start: b.Start, End: b.End},
	}

	best := -1
	for i, c := range candidates {
		if !c.Contains(a.Start) || !c.Contains(a.End) ||
			!c.Contains(b.Start) || !c.Contains(b.End) {
			continue
		}
		if c.Span() < a.Span() || c.Span() < b.Span() {
			continue
		}
		if best < 0 || c.Span() < candidates[best].Span() {
			best = i
		}
	}

	out := candidates[best]
	lums := make([]LuminanceZone, 0, len(a.Luminance)+len(b.Luminance))
	lums = append(lums, a.Luminance...)
	lums = append(lums, b.Luminance...)
	out.Luminance = mergeLuminance(lums)
	return out
}

// mergeLuminance deduplicates zones by color, then by anchor luminance, and
// sorts by descending luminance. A palette color beats a ladder anchor, both
// for its own ladder copy and on a luminance clash; otherwise the first zone
// wins.
func mergeLuminance(zs []LuminanceZone) []LuminanceZone {
	out := make([]LuminanceZone, 0, len(zs))

next:
	for _, z := range zs {
		for i, o := range out {
			if o.Color == z.Color {
				if o.ladder && !z.ladder {
					out[i] = z
				}
				continue next
			}
		}
		for i, o := range out {
			if o.Luminance == z.Luminance {
				if o.ladder && !z.ladder {
					out[i] = z
				}
				continue next
			}
		}
		out = append(out, z)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Luminance > out[j].Luminance
	})
	return out
}

// expandLuminance grows the anchors of one hue zone until they tile [0,100].
func expandLuminance(zs []LuminanceZone, maxPasses int) (int, bool) {
	sort.SliceStable(zs, func(i, j int) bool {
		return zs[i].Luminance < zs[j].Luminance
	})
	for i := range zs {
		zs[i].Start = zs[i].Luminance
		zs[i].End = zs[i].Luminance
	}

	passes := 0
	for passes < maxPasses {
		if luminanceCovered(zs) {
			return passes, true
		}
		passes++
		changed := false

		for i := range zs {
			if zs[i].Start > 0 && luminanceContaining(zs, zs[i].Start-1, i) < 0 {
				zs[i].Start--
				changed = true
			}
			if zs[i].End < 100 && luminanceContaining(zs, zs[i].End+1, i) < 0 {
				zs[i].End++
				changed = true
			}
		}

		if !changed {
			break
		}
	}

	return passes, luminanceCovered(zs)
}

func luminanceContaining(zs []LuminanceZone, l int, skip int) int {
	for j, z := range zs {
		if j != skip && z.Contains(l) {
			return j
		}
	}
	return -1
}

// luminanceCovered expects zones sorted ascending.
func luminanceCovered(zs []LuminanceZone) bool {
	if len(zs) == 0 || zs[0].Start != 0 || zs[len(zs)-1].End != 100 {
		return false
	}
	for i := 1; i < len(zs); i++ {
		if zs[i].Start != zs[i-1].End+1 {
			return false
		}
	}
	return true
}

// Validate checks that every integer hue belongs to exactly one zone and that
// every zone's luminance ranges tile [0,100] exactly once.
func (zm *ZoneMap) Validate() error {
	for deg := 0; deg < 360; deg++ {
		n := 0
		for _, z := range zm.Zones {
			if z.Contains(deg) {
				n++
			}
		}
		if n != 1 {
			return fmt.Errorf("%w: hue %d is covered by %d zones", ErrZoneNotFound, deg, n)
		}
	}

	for _, z := range zm.Zones {
		for l := 0; l <= 100; l++ {
			n := 0
			for _, lz := range z.Luminance {
				if lz.Contains(l) {
					n++
				}
			}
			if n != 1 {
				return fmt.Errorf("%w: luminance %d in hue zone [%d,%d] is covered by %d zones",
					ErrZoneNotFound, l, z.Start, z.End, n)
			}
		}
	}

	return nil
}

// lookup finds the palette color for an integer hue and luminance.
func (zm *ZoneMap) lookup(hue, lum int) (PaletteColor, error) {
	for _, z := range zm.Zones {
		if !z.Contains(hue) {
			continue
		}
		for _, lz := range z.Luminance {
			if lz.Contains(lum) {
				return lz.Color, nil
			}
		}
		return "", fmt.Errorf("%w: luminance %d in hue zone [%d,%d]", ErrZoneNotFound, lum, z.Start, z.End)
	}
	return "", fmt.Errorf("%w: hue %d", ErrZoneNotFound, hue)
}
