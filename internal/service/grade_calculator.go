package service

import "math"

// Degree classification bands.
const (
	ClassFirst       = "first_class"
	ClassSecondUpper = "second_upper"
	ClassSecondLower = "second_lower"
	ClassThird       = "third"
	ClassFail        = "fail"
)

// gradeBand maps a minimum score to a letter grade and its point value. The
// table is the single edit point for grading policy.
type gradeBand struct {
	MinScore float64
	Grade    string
	Point    int
}

var gradeBands = []gradeBand{
	{MinScore: 70, Grade: "A", Point: 5},
	{MinScore: 60, Grade: "B", Point: 4},
	{MinScore: 50, Grade: "C", Point: 3},
	{MinScore: 45, Grade: "D", Point: 2},
	{MinScore: 40, Grade: "E", Point: 1},
}

// GradeAndPoint converts a raw score to its letter grade and grade point.
// Scores below every band fail with zero points.
func GradeAndPoint(score float64) (string, int) {
	for _, band := range gradeBands {
		if score >= band.MinScore {
			return band.Grade, band.Point
		}
	}
	return "F", 0
}

// IsPassingPoint reports whether a grade point passes. Only F (0) fails;
// this is what decides carry-over eligibility.
func IsPassingPoint(point int) bool {
	return point >= 1
}

// CreditPoint is the grade point weighted by the course unit load.
func CreditPoint(point, unit int) float64 {
	return float64(point * unit)
}

// SemesterGPA divides total credit points by total units, rounded to two
// decimals. A term with no graded units scores zero.
func SemesterGPA(tcp float64, tnu int) float64 {
	if tnu == 0 {
		return 0
	}
	return round2(tcp / float64(tnu))
}

// CGPA recomputes the cumulative average from scratch out of the stored
// cumulative totals plus this term's contribution. When no units exist at
// all it falls back to the last known CGPA rather than dividing by zero.
func CGPA(previousTCP float64, previousTNU int, currentTCP float64, currentTNU int, lastKnown float64) float64 {
	totalTNU := previousTNU + currentTNU
	if totalTNU == 0 {
		return lastKnown
	}
	return round2((previousTCP + currentTCP) / float64(totalTNU))
}

// Classify maps a cumulative GPA to its degree classification.
func Classify(gpa float64) string {
	switch {
	case gpa >= 4.50:
		return ClassFirst
	case gpa >= 3.50:
		return ClassSecondUpper
	case gpa >= 2.40:
		return ClassSecondLower
	case gpa >= 1.50:
		return ClassThird
	default:
		return ClassFail
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
