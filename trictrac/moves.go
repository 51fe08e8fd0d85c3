package trictrac

// MoveError is a rule verdict for a submitted move pair. It is not an
// engine error: every caller is expected to handle the verdict
// deliberately, usually by surfacing "illegal move, reason X" to the
// player. The zero value means the pair is allowed.
type MoveError int

const (
	// MoveOK means no rule was broken.
	MoveOK MoveError = iota
	// CornerNeedsTwoCheckers: two checkers must arrive on an empty rest
	// corner together, and the last two checkers of a corner must leave
	// together.
	CornerNeedsTwoCheckers
	// CornerByEffectPossible: the corner was taken "by power" while the
	// natural take "by effect" was available.
	CornerByEffectPossible
	// ExitNeedsAllCheckersOnLastQuarter: an exit was attempted with
	// checkers still outside the home quarter.
	ExitNeedsAllCheckersOnLastQuarter
	// ExitByEffectPossible: an excess-number exit was chosen while a
	// sequence without excess numbers existed.
	ExitByEffectPossible
	// ExitNotFarthest: an excess exit must take the checker farthest from
	// the edge.
	ExitNotFarthest
	// OpponentCanFillQuarter: the move enters a quarter the opponent can
	// still fill.
	OpponentCanFillQuarter
	// MustFillQuarter: a sequence filling (or preserving) a quarter exists
	// and the submitted one does not take it.
	MustFillQuarter
	// MustPlayAllDice: a sequence playing both dice exists and the
	// submitted one plays only one.
	MustPlayAllDice
	// MustPlayStrongerDie: only one die is playable and the stronger one
	// was skipped although legal.
	MustPlayStrongerDie
)

func (e MoveError) String() string {
	switch e {
	case MoveOK:
		return "ok"
	case CornerNeedsTwoCheckers:
		return "two checkers must take or leave the rest corner together"
	case CornerByEffectPossible:
		return "corner can be taken by effect"
	case ExitNeedsAllCheckersOnLastQuarter:
		return "all checkers must be on the last quarter before exiting"
	case ExitByEffectPossible:
		return "a sequence without excess numbers is possible"
	case ExitNotFarthest:
		return "the farthest checker must exit first"
	case OpponentCanFillQuarter:
		return "the opponent can still fill this quarter"
	case MustFillQuarter:
		return "a quarter-filling sequence must be played"
	case MustPlayAllDice:
		return "both dice must be played"
	case MustPlayStrongerDie:
		return "the stronger die must be played"
	default:
		return "unknown move error"
	}
}

// MoveRules evaluates the legality of move pairs for a given board and
// dice roll. It is stateless apart from those inputs and works in real
// board coordinates for either color.
type MoveRules struct {
	Board *Board
	Dice  Dice
}

// NewMoveRules builds the rule checker for one roll.
func NewMoveRules(board *Board, dice Dice) *MoveRules {
	return &MoveRules{Board: board, Dice: dice}
}

// MovesPossible reports whether both legs are physically playable,
// checking the fused move when the pair chains ("tout d'une").
func (r *MoveRules) MovesPossible(c Color, moves MovePair) bool {
	if !r.Board.MovePossible(c, moves[0]) {
		return false
	}
	if chained, err := moves[0].Chain(moves[1]); err == nil {
		return r.Board.MovePossible(c, chained)
	}
	// Play the first leg before checking the second so a pair like
	// (1->4)(4->6) with a single checker on 1 is judged on the board it
	// will actually see.
	b2 := r.Board.Clone()
	if err := b2.MoveChecker(c, moves[0]); err != nil {
		return false
	}
	return b2.MovePossible(c, moves[1])
}

// MoveCompatibleDice returns the rolled dice values that exactly match a
// move's distance. For exits any die at least the distance to the edge is
// compatible; the empty move is compatible with both dice.
func (r *MoveRules) MoveCompatibleDice(c Color, m CheckerMove) []int {
	d1, d2 := r.Dice.Values[0], r.Dice.Values[1]
	var dice []int
	if m.To() == 0 {
		if m.From() == 0 {
			return []int{d1, d2}
		}
		minDist := m.From()
		if c == White {
			minDist = 25 - m.From()
		}
		if d1 >= minDist {
			dice = append(dice, d1)
		}
		if d2 >= minDist {
			dice = append(dice, d2)
		}
		return dice
	}
	dist := m.To() - m.From()
	if dist < 0 {
		dist = -dist
	}
	if d1 == dist {
		dice = append(dice, d1)
	}
	if d2 == dist {
		dice = append(dice, d2)
	}
	return dice
}

// MovesFollowDice reports whether the pair consumes both dice. Taking the
// rest corner by power is the one exception: it uses distances of one less
// than the dice for White (one more for Black).
func (r *MoveRules) MovesFollowDice(c Color, moves MovePair) bool {
	if r.IsMoveByPower(c, moves) {
		return true
	}
	dice1 := r.MoveCompatibleDice(c, moves[0])
	if len(dice1) == 0 {
		return false
	}
	dice2 := r.MoveCompatibleDice(c, moves[1])
	if len(dice2) == 0 {
		return false
	}
	if len(dice1) == 1 && len(dice2) == 1 && dice1[0] == dice2[0] && !r.Dice.IsDouble() {
		return false
	}
	return true
}

// IsMoveByPower reports whether the pair takes the rest corner "by power":
// both moves land on the own corner with shifted distances, both corners
// being empty.
func (r *MoveRules) IsMoveByPower(c Color, moves MovePair) bool {
	if moves[0].IsEmpty() || moves[1].IsEmpty() {
		return false
	}
	whiteCount, _, _ := r.Board.GetFieldCheckers(12)
	blackCount, _, _ := r.Board.GetFieldCheckers(13)
	if whiteCount > 0 || blackCount > 0 {
		return false
	}
	corner := r.Board.GetColorCorner(c)
	if moves[0].To() != corner || moves[1].To() != corner {
		return false
	}
	dist1 := abs(moves[0].To() - moves[0].From())
	dist2 := abs(moves[1].To() - moves[1].From())
	lo, hi := minInt(dist1, dist2), maxInt(dist1, dist2)
	if c == White {
		return lo == r.Dice.Min()-1 && hi == r.Dice.Max()-1
	}
	return lo == r.Dice.Min()+1 && hi == r.Dice.Max()+1
}

// CanTakeCornerByEffect reports whether the empty rest corner can be taken
// naturally: both dice land on it directly from own checkers.
func (r *MoveRules) CanTakeCornerByEffect(c Color) bool {
	corner := r.Board.GetColorCorner(c)
	count, _, _ := r.Board.GetFieldCheckers(corner)
	if count > 0 {
		return false
	}
	var from1, from2 Field
	if c == White {
		from1, from2 = corner-r.Dice.Values[0], corner-r.Dice.Values[1]
	} else {
		from1, from2 = corner+r.Dice.Values[0], corner+r.Dice.Values[1]
	}
	count1, owner1, err1 := r.Board.GetFieldCheckers(from1)
	count2, owner2, err2 := r.Board.GetFieldCheckers(from2)
	if err1 != nil || err2 != nil {
		return false
	}
	if r.Dice.IsDouble() {
		return count1 >= 2 && owner1 == c
	}
	return count1 > 0 && owner1 == c && count2 > 0 && owner2 == c
}

// MovesAllowed applies the full Trictrac rule stack in precedence order
// and returns the first violated rule, or MoveOK.
func (r *MoveRules) MovesAllowed(c Color, moves MovePair) MoveError {
	corner := r.Board.GetColorCorner(c)
	cornerCount, _, _ := r.Board.GetFieldCheckers(corner)
	from0, to0 := moves[0].From(), moves[0].To()
	from1, to1 := moves[1].From(), moves[1].To()

	// Two checkers must arrive on an empty corner together.
	if (to0 == corner || to1 == corner) && to0 != to1 && cornerCount == 0 {
		return CornerNeedsTwoCheckers
	}
	// The last two checkers of a corner must leave together.
	if (from0 == corner || from1 == corner) && from0 != from1 && cornerCount == 2 {
		return CornerNeedsTwoCheckers
	}

	if r.IsMoveByPower(c, moves) {
		if r.CanTakeCornerByEffect(c) {
			return CornerByEffectPossible
		}
		// No further rule can be broken by a move by power.
		return MoveOK
	}

	sequences := r.GetPossibleMovesSequences(c, true)
	if len(sequences) > 0 && !containsPair(sequences, moves) {
		if countFullPairs(sequences) > 0 {
			return MustPlayAllDice
		}
		return MustPlayStrongerDie
	}

	if moves[0].IsExit() || moves[1].IsExit() {
		if !r.Board.AllCheckersInHomeQuarter(c) {
			return ExitNeedsAllCheckersOnLastQuarter
		}
		noExcess := r.GetPossibleMovesSequences(c, false)
		if !containsPair(noExcess, moves) {
			// At least one leg uses an excess number.
			if len(noExcess) > 0 {
				return ExitByEffectPossible
			}
			if verdict := r.checkExitFarthest(c, moves); verdict != MoveOK {
				return verdict
			}
		}
	}

	// Never play into a quarter the opponent can still fill.
	if field, entering := farthestDestination(c, moves); entering {
		inOpponentSide := field > 12
		if c == Black {
			inOpponentSide = field < 13
		}
		if inOpponentSide && r.Board.IsQuarterFillable(c.Opponent(), field) {
			return OpponentCanFillQuarter
		}
	}

	// Fill a quarter when possible, and keep a filled one filled.
	filling := r.GetQuarterFillingMovesSequences(c)
	if len(filling) > 0 && !containsPair(filling, moves) {
		return MustFillQuarter
	}
	return MoveOK
}

// checkExitFarthest validates that excess exits take the farthest
// checkers first.
func (r *MoveRules) checkExitFarthest(c Color, moves MovePair) MoveError {
	// GetColorFields orders fields in play direction, so the checkers
	// farthest from the edge come first.
	checkers := r.Board.GetColorFields(c)
	if len(checkers) == 0 {
		return MoveOK
	}
	farthest := checkers[0].Field
	nextFarthest := farthest
	hasTwo := checkers[0].Count > 1
	if !hasTwo && len(checkers) > 1 {
		nextFarthest = checkers[1].Field
		hasTwo = true
	}
	if !hasTwo {
		return MoveOK
	}
	if moves[0].IsExit() && moves[1].IsExit() {
		if c == White {
			if maxInt(moves[0].From(), moves[1].From()) > nextFarthest {
				return ExitNotFarthest
			}
		} else if minInt(moves[0].From(), moves[1].From()) < nextFarthest {
			return ExitNotFarthest
		}
		return MoveOK
	}
	exitField := moves[0].From()
	if !moves[0].IsExit() {
		exitField = moves[1].From()
	}
	if exitField != farthest {
		return ExitNotFarthest
	}
	return MoveOK
}

// farthestDestination returns the most advanced on-board destination of
// the pair in the color's play direction. Exits and empty moves do not
// count as entering a quarter.
func farthestDestination(c Color, moves MovePair) (Field, bool) {
	found := false
	var field Field
	for _, m := range moves {
		if m.IsEmpty() || m.To() == 0 {
			continue
		}
		if !found {
			field = m.To()
			found = true
			continue
		}
		if c == White && m.To() > field {
			field = m.To()
		}
		if c == Black && m.To() < field {
			field = m.To()
		}
	}
	return field, found
}

// GetPossibleMovesSequences enumerates the legal move pairs for the roll,
// trying both dice orders. When a sequence starting with the stronger die
// exists, single-die fallbacks are dropped; pairs containing an empty move
// survive only when no full pair exists.
func (r *MoveRules) GetPossibleMovesSequences(c Color, withExcedent bool) []MovePair {
	sequences := r.sequencesByDice(c, r.Dice.Max(), r.Dice.Min(), withExcedent, false)
	ignoreEmpty := len(sequences) > 0
	if !r.Dice.IsDouble() {
		sequences = append(sequences, r.sequencesByDice(c, r.Dice.Min(), r.Dice.Max(), withExcedent, ignoreEmpty)...)
	}
	if countFullPairs(sequences) > 0 {
		kept := sequences[:0]
		for _, pair := range sequences {
			if !pair[0].IsEmpty() && !pair[1].IsEmpty() {
				kept = append(kept, pair)
			}
		}
		sequences = kept
	}
	return dedupePairs(sequences)
}

func (r *MoveRules) sequencesByDice(c Color, die1, die2 int, withExcedents, ignoreEmpty bool) []MovePair {
	corner := r.Board.GetColorCorner(c)
	cornerBefore, _, _ := r.Board.GetFieldCheckers(corner)

	var sequences []MovePair
	for _, first := range r.Board.GetPossibleMoves(c, die1, withExcedents) {
		b2 := r.Board.Clone()
		if err := b2.MoveChecker(c, first); err != nil {
			continue
		}
		hasSecond := false
		for _, second := range b2.GetPossibleMoves(c, die2, withExcedents) {
			b3 := b2.Clone()
			if err := b3.MoveChecker(c, second); err != nil {
				continue
			}
			if strandsCornerChecker(b3, c, corner, cornerBefore) {
				continue
			}
			sequences = append(sequences, MovePair{first, second})
			hasSecond = true
		}
		if !hasSecond && withExcedents && !ignoreEmpty {
			if !strandsCornerChecker(b2, c, corner, cornerBefore) {
				sequences = append(sequences, MovePair{first, EmptyMove})
			}
		}
	}
	return sequences
}

// strandsCornerChecker reports whether a sequence ends with exactly one
// checker on the own rest corner when it did not start that way. The rest
// corner is taken and abandoned two checkers at a time, so such sequences
// are never playable.
func strandsCornerChecker(b *Board, c Color, corner Field, before int) bool {
	after, _, _ := b.GetFieldCheckers(corner)
	return after == 1 && before != 1
}

// GetQuarterFillingMovesSequences returns the legal pairs after which the
// color holds a filled quarter.
func (r *MoveRules) GetQuarterFillingMovesSequences(c Color) []MovePair {
	var filling []MovePair
	for _, pair := range r.GetPossibleMovesSequences(c, true) {
		b2 := r.Board.Clone()
		if err := b2.MoveChecker(c, pair[0]); err != nil {
			continue
		}
		if err := b2.MoveChecker(c, pair[1]); err != nil {
			continue
		}
		if b2.AnyQuarterFilled(c) {
			filling = append(filling, pair)
		}
	}
	return filling
}

// getScoringQuarterFillingMovesSequences counts the distinct ways
// ("moyens") of making a filled quarter for scoring. Playing the same
// two moves in either order is one way, unless one of the orders chains
// into a "tout d'une": the chained and the two-checker readings are
// distinct ways. Preserving an already filled quarter is a single way,
// handled by the scorer.
func (r *MoveRules) getScoringQuarterFillingMovesSequences(c Color) []MovePair {
	var ways []MovePair
	for _, pair := range r.GetQuarterFillingMovesSequences(c) {
		reversed := MovePair{pair[1], pair[0]}
		_, errForward := pair[0].Chain(pair[1])
		_, errReversed := pair[1].Chain(pair[0])
		if errForward != nil && errReversed != nil && containsPair(ways, reversed) {
			continue
		}
		ways = append(ways, pair)
	}
	return ways
}

func containsPair(pairs []MovePair, pair MovePair) bool {
	for _, p := range pairs {
		if p == pair {
			return true
		}
	}
	return false
}

func countFullPairs(pairs []MovePair) int {
	n := 0
	for _, p := range pairs {
		if !p[0].IsEmpty() && !p[1].IsEmpty() {
			n++
		}
	}
	return n
}

func dedupePairs(pairs []MovePair) []MovePair {
	seen := make(map[MovePair]struct{}, len(pairs))
	out := pairs[:0]
	for _, p := range pairs {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
