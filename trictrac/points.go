package trictrac

// Jan is a scoring pattern. Several jans can fire on a single roll, each
// possibly by several distinct ways ("moyens").
type Jan int

const (
	// JanFilledQuarter: make or preserve a filled quarter.
	JanFilledQuarter Jan = iota
	// JanTrueHitSmallJan: hit a lone opponent checker in the small-jan
	// table, fields 1-6 in White's view (see IsFieldInSmallJanTable); a
	// hit on fields 7-12 is not scored as a small-jan hit.
	JanTrueHitSmallJan
	// JanTrueHitBigJan: hit a lone opponent checker on any other field
	// (fields 7-24).
	JanTrueHitBigJan
	// JanTrueHitOpponentCorner: both dice can land two checkers on the
	// opponent's empty rest corner.
	JanTrueHitOpponentCorner
)

func (j Jan) String() string {
	switch j {
	case JanFilledQuarter:
		return "filled quarter"
	case JanTrueHitSmallJan:
		return "true hit in the small-jan table"
	case JanTrueHitBigJan:
		return "true hit in the big-jan table"
	case JanTrueHitOpponentCorner:
		return "true hit on the opponent corner"
	default:
		return "unknown jan"
	}
}

// Points returns the value of one way of this jan, by simple or doublet.
func (j Jan) Points(isDouble bool) int {
	if j == JanTrueHitBigJan {
		if isDouble {
			return 4
		}
		return 2
	}
	if isDouble {
		return 6
	}
	return 4
}

// PossibleJans maps each discovered jan to its distinct ways. Inserts are
// idempotent per key so the two dice orders can be merged freely.
type PossibleJans map[Jan][]MovePair

func (pj PossibleJans) push(jan Jan, pair MovePair) {
	for _, existing := range pj[jan] {
		if existing == pair {
			return
		}
	}
	pj[jan] = append(pj[jan], pair)
}

func (pj PossibleJans) merge(other PossibleJans) {
	for jan, pairs := range other {
		for _, pair := range pairs {
			pj.push(jan, pair)
		}
	}
}

// PointsRules discovers the jans of a roll and converts them into points.
// It always scores from White's perspective: a Black board is mirrored at
// construction and the result attributed to Black by the caller.
type PointsRules struct {
	Board *Board
	Dice  Dice
	rules *MoveRules
}

// NewPointsRules builds the scorer for one roll of the given color.
func NewPointsRules(c Color, board *Board, dice Dice) *PointsRules {
	b := board.Clone()
	if c == Black {
		b = board.Mirror()
	}
	return &PointsRules{
		Board: b,
		Dice:  dice,
		rules: NewMoveRules(b, dice),
	}
}

// GetJans explores the two-ply move tree for both dice orders and collects
// every scoring pattern with its ways.
func (p *PointsRules) GetJans() PossibleJans {
	d1, d2 := p.Dice.Values[0], p.Dice.Values[1]

	jans := p.jansByOrderedDice(p.Board, []int{d1, d2})
	jans.merge(p.jansByOrderedDice(p.Board, []int{d2, d1}))

	// Hitting the opponent's empty rest corner: both predecessor fields
	// must be able to spare a checker, the own corner keeping its
	// two-checker lock.
	corner := p.Board.GetColorCorner(White)
	advCorner := p.Board.GetColorCorner(Black)
	advCount, _, _ := p.Board.GetFieldCheckers(advCorner)
	if advCount == 0 {
		from0 := advCorner - d1
		from1 := advCorner - d2
		count0, owner0, err0 := p.Board.GetFieldCheckers(from0)
		count1, owner1, err1 := p.Board.GetFieldCheckers(from1)
		if err0 == nil && err1 == nil && owner0 == White && owner1 == White {
			hit := MovePair{
				{from: from0, to: advCorner},
				{from: from1, to: advCorner},
			}
			if from0 == from1 {
				spare := 0
				if from0 == corner {
					spare = 3
				}
				if count0 > spare {
					jans.push(JanTrueHitOpponentCorner, hit)
				}
			} else {
				spare0, spare1 := 0, 0
				if from0 == corner {
					spare0 = 2
				}
				if from1 == corner {
					spare1 = 2
				}
				if count0 > spare0 && count1 > spare1 {
					jans.push(JanTrueHitOpponentCorner, hit)
				}
			}
		}
	}

	// Filling jans: preserving an already filled quarter is one way;
	// making a new one counts one way per distinct move set.
	if p.Board.AnyQuarterFilled(White) {
		if pairs := p.rules.GetQuarterFillingMovesSequences(White); len(pairs) > 0 {
			jans.push(JanFilledQuarter, pairs[0])
		}
	} else {
		for _, pair := range p.rules.getScoringQuarterFillingMovesSequences(White) {
			jans.push(JanFilledQuarter, pair)
		}
	}

	return jans
}

// jansByOrderedDice walks the move tree for one dice order. Each die is
// tried independently on the incoming board; a lone opponent checker on
// the destination records a true hit. A virtual die equal to the running
// sum discovers "tout d'une" hits, passing through lone (but not filled)
// opponent fields.
func (p *PointsRules) jansByOrderedDice(board *Board, dice []int) PossibleJans {
	jans := PossibleJans{}
	if len(dice) == 0 {
		return jans
	}
	die := dice[len(dice)-1]
	rest := dice[:len(dice)-1]

	corner := board.GetColorCorner(White)
	advCorner := board.GetColorCorner(Black)
	cornerCount, _, _ := board.GetFieldCheckers(corner)

	for _, fc := range board.GetColorFields(White) {
		from := fc.Field
		to := from + die
		if to > 24 {
			to = 0
		}
		move := CheckerMove{from: from, to: to}
		// Corner constraints: never onto the opponent corner, and not
		// onto the own corner when a single checker would sit there.
		if to == advCorner || (to == corner && cornerCount <= 1) {
			continue
		}
		b2 := board.Clone()
		err := b2.MoveChecker(White, move)
		switch err {
		case ErrFieldBlockedByOne:
			jan := JanTrueHitBigJan
			if IsFieldInSmallJanTable(to) {
				jan = JanTrueHitSmallJan
			}
			jans.push(jan, MovePair{move, EmptyMove})
		case nil:
		default:
			// A filled field cannot be passed, not even virtually.
			continue
		}
		if len(rest) > 0 {
			summed := make([]int, len(rest))
			for i, d := range rest {
				summed[i] = d + die
			}
			jans.merge(p.jansByOrderedDice(board, summed))
		}
	}

	// The remaining dice score independently of this one.
	jans.merge(p.jansByOrderedDice(board, rest))
	return jans
}

// GetPoints returns the points of the rolling player and of their
// opponent. The opponent scores on impotent dice: two points for each die
// the roller cannot play ("jan qui ne peut").
func (p *PointsRules) GetPoints() (int, int) {
	points := 0
	for jan, ways := range p.GetJans() {
		points += jan.Points(p.Dice.IsDouble()) * len(ways)
	}

	opponent := 0
	playable := 0
	for _, pair := range p.rules.GetPossibleMovesSequences(White, true) {
		n := 0
		if !pair[0].IsEmpty() {
			n++
		}
		if !pair[1].IsEmpty() {
			n++
		}
		if n > playable {
			playable = n
		}
	}
	opponent += 2 * (2 - playable)

	return points, opponent
}
