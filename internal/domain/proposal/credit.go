package proposal

import (
	"github.com/shopspring/decimal"
)

// CreditGrade is the bucketed credit bureau score
type CreditGrade struct {
	Score int    `json:"score"`
	Grade int    `json:"grade"`
	Label string `json:"label"`
}

// gradeFloors are the minimum scores of grades 1 through 9; lower scores are grade 10.
var gradeFloors = []int{942, 891, 832, 768, 698, 630, 530, 454, 335}

// GradeFor buckets a 0-1000 score into grades 1-10. A zero score means the
// score is unknown and yields grade 0.
func GradeFor(score int) CreditGrade {
	if score <= 0 {
		return CreditGrade{Score: score, Grade: 0, Label: "정보없음"}
	}
	grade := len(gradeFloors) + 1
	for i, floor := range gradeFloors {
		if score >= floor {
			grade = i + 1
			break
		}
	}
	return CreditGrade{Score: score, Grade: grade, Label: gradeLabel(grade)}
}

func gradeLabel(grade int) string {
	switch {
	case grade <= 3:
		return "우량"
	case grade <= 6:
		return "양호"
	case grade <= 8:
		return "주의"
	default:
		return "위험"
	}
}

// DTI returns total obligation balance (won) over annual revenue (억원) as a
// rounded percentage. Zero or negative revenue yields 0.
func DTI(balanceWon, revenueEok decimal.Decimal) int {
	if !revenueEok.IsPositive() {
		return 0
	}
	ratio := balanceWon.Div(revenueEok.Mul(hundredM)).Mul(decimal.NewFromInt(100))
	return int(ratio.Round(0).IntPart())
}

// DTILevel classifies a DTI percentage
func DTILevel(dti int) string {
	switch {
	case dti <= 30:
		return "안정"
	case dti <= 70:
		return "보통"
	case dti <= 100:
		return "주의"
	default:
		return "위험"
	}
}
