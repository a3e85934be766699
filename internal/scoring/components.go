// internal/scoring/components.go
package scoring

import (
	"math"
	"strings"
)

func (e *Engine) businessViability(data Section) float64 {
	b := e.cfg.Budgets
	score := 0.0

	score += math.Min(data.Float("business_plan_quality", 0)*b.PlanQuality, b.PlanQuality)

	// Realism peaks when the projection matches the industry average.
	projection := data.Float("revenue_projection", 0)
	industryAvg := data.Float("industry_average_revenue", e.cfg.DefaultIndustryRevenue)
	if projection > 0 && industryAvg > 0 {
		ratio := math.Min(projection/industryAvg, 2.0)
		score += (1 - math.Abs(ratio-1)) * b.RevenueRealism
	}

	score += math.Min(data.Float("years_of_experience", 0)*b.ExperiencePerYr, b.Experience)
	score += math.Min(data.Float("market_analysis_score", 0)*b.MarketAnalysis, b.MarketAnalysis)

	return clamp(score, 0, 100)
}

func (e *Engine) paymentHistory(data Section) float64 {
	b := e.cfg.Budgets
	score := data.Float("utility_payment_score", 0)*b.UtilityPayments +
		data.Float("rent_payment_score", 0)*b.RentPayments +
		data.Float("student_loan_payment_score", 0)*b.StudentLoanPayments +
		data.Float("subscription_payment_score", 0)*b.SubscriptionPayments +
		data.Float("tax_filing_score", 0)*b.TaxFiling

	return clamp(score, 0, 100)
}

func (e *Engine) financialManagement(data Section) float64 {
	b := e.cfg.Budgets
	score := 0.0

	income := data.Float("monthly_income", 1)
	annualIncome := income * 12

	if income > 0 {
		dti := data.Float("debt_amount", 0) / annualIncome
		score += stepPoints(dti, b.DebtToIncome)

		savingsRate := data.Float("savings_amount", 0) / annualIncome
		score += math.Min(savingsRate*100, b.SavingsRate)
	}

	expenses := data.Float("monthly_expenses", 0)
	if income > 0 && income > expenses {
		score += (income - expenses) / income * b.CashFlow
	}

	score += data.Float("overdraft_score", 1.0) * b.OverdraftAvoided

	return clamp(score, 0, 100)
}

func (e *Engine) personalCreditworthiness(data Section) float64 {
	b := e.cfg.Budgets
	score := 0.0

	if traditional := data.Float("traditional_credit_score", 0); traditional > 0 {
		lo, hi := float64(e.cfg.Range.Min), float64(e.cfg.Range.Max)
		// Off-range scores are not clamped here; the component clamp bounds the sum.
		score += (traditional - lo) / (hi - lo) * b.TraditionalScore
	} else {
		score += b.NoHistoryNeutral
	}

	score += stepPoints(data.Float("credit_utilization", 0), b.CreditUtilization)

	// Negative inquiry counts are treated as none.
	score += stepPoints(math.Max(data.Float("recent_credit_inquiries", 0), 0), b.CreditInquiries)

	return clamp(score, 0, 100)
}

func (e *Engine) educationBackground(data Section) float64 {
	b := e.cfg.Budgets
	score := e.degreePoints(data.String("education_level", ""))

	score += math.Min(data.Float("industry_experience_years", 0)*b.IndustryExperiencePerYr, b.IndustryExperience)
	score += math.Min(data.Float("professional_certifications", 0)*b.CertificationEach, b.Certifications)
	score += math.Min(data.Float("entrepreneurship_courses", 0)*b.CoursePoints, b.EntrepreneurshipCourses)

	return clamp(score, 0, 100)
}

// degreePoints returns the points of the first tier with a keyword contained
// in level, or 0.
func (e *Engine) degreePoints(level string) float64 {
	level = strings.ToLower(level)
	for _, tier := range e.cfg.EducationTiers {
		for _, kw := range tier.Keywords {
			if strings.Contains(level, kw) {
				return tier.Points
			}
		}
	}
	return 0
}

func (e *Engine) socialVerification(data Section) float64 {
	b := e.cfg.Budgets
	score := data.Float("identity_verification_score", 0)*b.IdentityVerification +
		data.Float("professional_network_score", 0)*b.ProfessionalNetwork +
		data.Float("online_business_presence", 0)*b.OnlinePresence +
		data.Float("community_involvement_score", 0)*b.CommunityInvolvement

	return clamp(score, 0, 100)
}
