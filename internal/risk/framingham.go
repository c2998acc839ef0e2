package risk

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// interval is a numeric range parsed from a table key.
type interval struct {
	lo, hi         float64
	loIncl, hiIncl bool
}

func (iv interval) contains(v float64) bool {
	if v < iv.lo || (v == iv.lo && !iv.loIncl) {
		return false
	}
	if v > iv.hi || (v == iv.hi && !iv.hiIncl) {
		return false
	}
	return true
}

// parseInterval understands "min-max", "<N", ">=N", ">N" and exact "N".
// Integer ranges cover [min, max+1) so fractional measurements between two
// declared bands land in the lower one.
func parseInterval(key string) (interval, error) {
	num := func(s string) (float64, error) {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	}

	switch {
	case strings.HasPrefix(key, ">="):
		n, err := num(key[2:])
		return interval{lo: n, hi: math.Inf(1), loIncl: true}, err
	case strings.HasPrefix(key, ">"):
		n, err := num(key[1:])
		return interval{lo: n, hi: math.Inf(1)}, err
	case strings.HasPrefix(key, "<"):
		n, err := num(key[1:])
		return interval{lo: math.Inf(-1), hi: n}, err
	case strings.Contains(key[1:], "-"):
		i := strings.Index(key[1:], "-") + 1
		lo, err := num(key[:i])
		if err != nil {
			return interval{}, err
		}
		hi, err := num(key[i+1:])
		if err != nil {
			return interval{}, err
		}
		if hi < lo {
			return interval{}, fmt.Errorf("inverted range %q", key)
		}
		return interval{lo: lo, hi: hi + 1, loIncl: true}, nil
	default:
		n, err := num(key)
		return interval{lo: n, hi: n, loIncl: true, hiIncl: true}, err
	}
}

type keyed[T any] struct {
	key   string
	value T
}

type rangeEntry[T any] struct {
	iv    interval
	value T
}

// rangeTable is an ordered lookup; the first matching entry wins.
type rangeTable[T any] []rangeEntry[T]

func newRangeTable[T any](pairs ...keyed[T]) rangeTable[T] {
	t := make(rangeTable[T], 0, len(pairs))
	for _, p := range pairs {
		iv, err := parseInterval(p.key)
		if err != nil {
			panic(fmt.Sprintf("risk: bad range key %q: %v", p.key, err))
		}
		t = append(t, rangeEntry[T]{iv: iv, value: p.value})
	}
	return t
}

// lookup returns the value of the first entry containing v. Values outside
// every entry fall back to the last declared entry.
func (t rangeTable[T]) lookup(v float64) T {
	for _, e := range t {
		if e.iv.contains(v) {
			return e.value
		}
	}
	return t[len(t)-1].value
}

type framinghamTable struct {
	age          rangeTable[int]
	cholesterol  rangeTable[rangeTable[int]]
	smoker       rangeTable[int]
	hdl          rangeTable[int]
	sbpUntreated rangeTable[int]
	sbpTreated   rangeTable[int]
	diabetes     int
}

func cholesterolBand(lt160, to199, to239, to279, ge280 int) rangeTable[int] {
	return newRangeTable(
		keyed[int]{"<160", lt160},
		keyed[int]{"160-199", to199},
		keyed[int]{"200-239", to239},
		keyed[int]{"240-279", to279},
		keyed[int]{">=280", ge280},
	)
}

func sbpBand(lt120, to129, to139, to159, ge160 int) rangeTable[int] {
	return newRangeTable(
		keyed[int]{"<120", lt120},
		keyed[int]{"120-129", to129},
		keyed[int]{"130-139", to139},
		keyed[int]{"140-159", to159},
		keyed[int]{">=160", ge160},
	)
}

func decades[T any](a, b, c, d, e T) rangeTable[T] {
	return newRangeTable(
		keyed[T]{"20-39", a},
		keyed[T]{"40-49", b},
		keyed[T]{"50-59", c},
		keyed[T]{"60-69", d},
		keyed[T]{"70-79", e},
	)
}

func ageBands(points ...int) rangeTable[int] {
	keys := []string{"20-34", "35-39", "40-44", "45-49", "50-54", "55-59", "60-64", "65-69", "70-74", "75-79"}
	pairs := make([]keyed[int], len(keys))
	for i, k := range keys {
		pairs[i] = keyed[int]{k, points[i]}
	}
	return newRangeTable(pairs...)
}

var hdlBands = newRangeTable(
	keyed[int]{">=60", -1},
	keyed[int]{"50-59", 0},
	keyed[int]{"40-49", 1},
	keyed[int]{"<40", 2},
)

var (
	framinghamMale = framinghamTable{
		age: ageBands(-9, -4, 0, 3, 6, 8, 10, 11, 12, 13),
		cholesterol: decades(
			cholesterolBand(0, 4, 7, 9, 11),
			cholesterolBand(0, 3, 5, 6, 8),
			cholesterolBand(0, 2, 3, 4, 5),
			cholesterolBand(0, 1, 1, 2, 3),
			cholesterolBand(0, 0, 0, 1, 1),
		),
		smoker:       decades(8, 5, 3, 1, 1),
		hdl:          hdlBands,
		sbpUntreated: sbpBand(0, 0, 1, 1, 2),
		sbpTreated:   sbpBand(0, 1, 2, 2, 3),
		diabetes:     2,
	}
	framinghamFemale = framinghamTable{
		age: ageBands(-7, -3, 0, 3, 6, 8, 10, 12, 14, 16),
		cholesterol: decades(
			cholesterolBand(0, 4, 8, 11, 13),
			cholesterolBand(0, 3, 6, 8, 10),
			cholesterolBand(0, 2, 4, 5, 7),
			cholesterolBand(0, 1, 2, 3, 4),
			cholesterolBand(0, 1, 1, 2, 2),
		),
		smoker:       decades(9, 7, 4, 2, 1),
		hdl:          hdlBands,
		sbpUntreated: sbpBand(0, 1, 2, 3, 4),
		sbpTreated:   sbpBand(0, 3, 4, 5, 6),
		diabetes:     4,
	}

	// "<1" scores as 0.5 and ">=30" as 30.
	framinghamPercent = newRangeTable(
		keyed[float64]{"<9", 0.5},
		keyed[float64]{"9-12", 1},
		keyed[float64]{"13-14", 2},
		keyed[float64]{"15", 3},
		keyed[float64]{"16", 4},
		keyed[float64]{"17", 5},
		keyed[float64]{"18", 6},
		keyed[float64]{"19", 8},
		keyed[float64]{"20", 11},
		keyed[float64]{"21", 14},
		keyed[float64]{"22", 17},
		keyed[float64]{"23", 22},
		keyed[float64]{"24", 27},
		keyed[float64]{">=25", 30},
	)
)

// framinghamPoints totals the points for in.
func framinghamPoints(in Input) int {
	t := framinghamMale
	if in.Gender == GenderFemale {
		t = framinghamFemale
	}

	age := float64(in.Age)
	points := t.age.lookup(age)
	points += t.cholesterol.lookup(age).lookup(in.TotalCholesterol)
	if in.IsSmoker {
		points += t.smoker.lookup(age)
	}
	points += t.hdl.lookup(in.HDLCholesterol)

	sbp := t.sbpUntreated
	if in.IsTreatedHypertension {
		sbp = t.sbpTreated
	}
	points += sbp.lookup(float64(in.SystolicBP))

	if in.IsDiabetic {
		points += t.diabetes
	}
	return points
}

func framingham(in Input) Result {
	points := framinghamPoints(in)
	percent := framinghamPercent.lookup(float64(points))

	return Result{
		RiskScore:      float64(points),
		RiskPercentage: percent,
		IsHighRisk:     percent >= 20,
		RiskLevel:      framinghamLevel(percent),
		AlgorithmUsed:  AlgorithmFramingham,
	}
}

func framinghamLevel(percent float64) Level {
	switch {
	case percent < 10:
		return LevelLow
	case percent < 20:
		return LevelModerate
	default:
		return LevelHigh
	}
}
