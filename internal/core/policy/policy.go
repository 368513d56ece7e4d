// Package policy holds the school's business constants: fees, grade
// thresholds, class capacity and student-visa attendance rules.
package policy

import (
	"github.com/shopspring/decimal"

	"langschool/internal/core/apperror"
)

// Money represents a monetary value with full precision.
type Money = decimal.Decimal

// mustMoney parses a constant amount, panics on error.
func mustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Fees (EUR).
var (
	RegistrationFee = mustMoney("150.00")
	MaterialsFee    = mustMoney("75.00")
	WeeklyTuition   = mustMoney("260.00")

	// LongCourseDiscount applies to tuition of courses of LongCourseWeeks or more.
	LongCourseDiscount = mustMoney("0.10")
)

const (
	LongCourseWeeks = 12
	MaxCourseWeeks  = 52
)

// Capacity.
const (
	MinClassSize = 3
	MaxClassSize = 15
)

// Student visa compliance.
const (
	// VisaMinWeeklyHours is the minimum tuition load of a visa holder.
	VisaMinWeeklyHours = 15
	// VisaMinAttendancePercent below this the school must report the student.
	VisaMinAttendancePercent = 80
)

// Grade is a letter grade.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Minimum scores (inclusive) per grade, highest first.
const (
	ThresholdA = 90
	ThresholdB = 80
	ThresholdC = 70
	ThresholdD = 60

	PassMark = ThresholdD
)

// TuitionFor returns the total price of a course of the given length,
// fees included, rounded to cents.
func TuitionFor(weeks int) (Money, error) {
	if weeks < 1 || weeks > MaxCourseWeeks {
		return decimal.Zero, apperror.NewValidation("course length out of range").
			WithDetail("weeks", weeks).
			WithDetail("max", MaxCourseWeeks)
	}

	tuition := WeeklyTuition.Mul(decimal.NewFromInt(int64(weeks)))
	if weeks >= LongCourseWeeks {
		tuition = tuition.Sub(tuition.Mul(LongCourseDiscount))
	}

	return tuition.Add(RegistrationFee).Add(MaterialsFee).Round(2), nil
}

// GradeFor maps a 0-100 score to a letter grade.
func GradeFor(score int) (Grade, error) {
	if score < 0 || score > 100 {
		return "", apperror.NewValidation("score out of range").WithDetail("score", score)
	}
	switch {
	case score >= ThresholdA:
		return GradeA, nil
	case score >= ThresholdB:
		return GradeB, nil
	case score >= ThresholdC:
		return GradeC, nil
	case score >= ThresholdD:
		return GradeD, nil
	default:
		return GradeF, nil
	}
}

// Passed reports whether score reaches the pass mark.
func Passed(score int) bool {
	return score >= PassMark
}

// MeetsVisaHours reports whether a weekly schedule satisfies visa rules.
func MeetsVisaHours(weeklyHours int) bool {
	return weeklyHours >= VisaMinWeeklyHours
}

// ClassHasCapacity reports whether one more student fits a class.
func ClassHasCapacity(enrolled int) bool {
	return enrolled < MaxClassSize
}
