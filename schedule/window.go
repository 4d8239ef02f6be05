// Package schedule computes harmonic scheduling windows from resonance
// classes and provides the monotonic logical clock used to order audit
// records deterministically.
package schedule

import "math"

// cycle is the length of one full harmonic cycle, matching the 96 resonance
// classes: a class-r window recurs every 96 ticks.
const cycle = 96

// NextWindowFrom returns the next time slot at or after now that is
// harmonically aligned with class r, i.e. the smallest t > now with
// (t + r) mod 96 == 0.
//
// The raw offset (96 - ((now + r) mod 96)) mod 96 computes to 0 when now is
// itself aligned; in that case the offset is forced to a full cycle so the
// result is strictly in the future. Repeatedly feeding the result back as
// now therefore advances time by exactly 96 per call.
//
// Near the top of the int64 range the result saturates at math.MaxInt64
// instead of wrapping below now. Negative now values are treated with
// floored modular arithmetic so alignment stays consistent across zero.
func NextWindowFrom(now int64, r uint8) int64 {
	phase := (now + int64(r%cycle)) % cycle
	if phase < 0 {
		phase += cycle
	}
	offset := (cycle - phase) % cycle
	if offset == 0 {
		offset = cycle
	}
	if now > math.MaxInt64-offset {
		return math.MaxInt64
	}
	return now + offset
}
