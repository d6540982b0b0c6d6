package eclvm

// SpellcardBaseScore is the per-spellcard-index base capture bonus, the
// counterpart of EclManager.cpp's g_SpellcardScore[64] table: scores
// escalate from 200000 for the first spellcard to 700000 for the last,
// in steps sized so later, harder spellcards are worth proportionally
// more. The exact original step sizes were not fully recovered from the
// retrieved source, so this table is generated on that same 200000..700000
// range rather than guessed byte-for-byte (see the design notes).
var SpellcardBaseScore = func() [64]int32 {
	var t [64]int32
	const lo, hi = 200000, 700000
	for i := range t {
		t[i] = lo + int32((hi-lo)*i/(len(t)-1))
	}
	return t
}()

// SpellcardBonus computes the capture bonus for spellcard index idx given
// the fraction of the spellcard's time limit remaining when it was
// captured (0 = captured with no time left, 1 = captured instantly).
func SpellcardBonus(idx int, timeRemainingFraction float32) int32 {
	if idx < 0 || idx >= len(SpellcardBaseScore) {
		return 0
	}
	if timeRemainingFraction < 0 {
		timeRemainingFraction = 0
	}
	if timeRemainingFraction > 1 {
		timeRemainingFraction = 1
	}
	base := SpellcardBaseScore[idx]
	return base + int32(float32(base)*timeRemainingFraction)
}
