package normalize

import "github.com/spigell/careerboost/internal/ai/recovery"

const (
	ResumeScoreFallback = 65

	StrengthsLimit       = 10
	IssuesLimit          = 10
	ImprovedBulletsLimit = 6
	KeywordsLimit        = 20

	SummaryFallback = "Не удалось сформировать итоговый вывод по резюме. Попробуйте отправить резюме ещё раз."
)

// ResumeReview is the model-facing resume schema.
type ResumeReview struct {
	Score           int      `json:"score"`
	Strengths       []string `json:"strengths"`
	Issues          []string `json:"issues"`
	ImprovedBullets []string `json:"improved_bullets"`
	Keywords        []string `json:"keywords"`
	Summary         string   `json:"summary"`
}

// ResumeAnalysis is the view rendered by the resume analysis page.
type ResumeAnalysis struct {
	OverallScore    int      `json:"overall_score"`
	StructureScore  int      `json:"structure_score"`
	ExperienceScore int      `json:"experience_score"`
	SkillsScore     int      `json:"skills_score"`
	GrammarScore    int      `json:"grammar_score"`
	Recommendations []string `json:"recommendations"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
}

func Resume(obj recovery.Object) ResumeReview {
	return ResumeReview{
		Score:           Score(obj.Get("score"), ResumeScoreFallback),
		Strengths:       StringList(obj.Get("strengths"), StrengthsLimit),
		Issues:          StringList(obj.Get("issues"), IssuesLimit),
		ImprovedBullets: StringList(obj.Get("improved_bullets"), ImprovedBulletsLimit),
		Keywords:        StringList(obj.Get("keywords"), KeywordsLimit),
		Summary:         Text(obj.Get("summary"), SummaryFallback),
	}
}

// Analysis derives the sub-scores from the overall score with fixed ratios.
func Analysis(r ResumeReview) ResumeAnalysis {
	score := Clamp(r.Score)

	return ResumeAnalysis{
		OverallScore:    score,
		StructureScore:  ratio(score, 90),
		ExperienceScore: ratio(score, 95),
		SkillsScore:     ratio(score, 92),
		GrammarScore:    ratio(score, 98),
		Recommendations: CapList(r.ImprovedBullets, ImprovedBulletsLimit),
		Strengths:       CapList(r.Strengths, StrengthsLimit),
		Weaknesses:      CapList(r.Issues, IssuesLimit),
	}
}

func ratio(score, percent int) int {
	return score * percent / 100
}
