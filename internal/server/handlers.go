package server

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spigell/careerboost/internal/coverletter"
	"github.com/spigell/careerboost/internal/document"
	"github.com/spigell/careerboost/internal/listing"
	"github.com/spigell/careerboost/internal/matching"
	"github.com/spigell/careerboost/internal/normalize"
)

const reasonSeparator = " • "

type resumeReviewRequest struct {
	ResumeText string `json:"resume_text"`
	TargetRole string `json:"target_role"`
}

type coverLetterRequest struct {
	ResumeText     string `json:"resume_text"`
	JobTitle       string `json:"job_title"`
	Company        string `json:"company"`
	JobDescription string `json:"job_description"`
	Tone           string `json:"tone"`
}

type interviewStartRequest struct {
	Role  string `json:"role"`
	Level string `json:"level"`
	Focus string `json:"focus"`
}

type interviewTurnRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

type interviewEvaluateRequest struct {
	Question string `json:"question" form:"question"`
	Answer   string `json:"answer" form:"answer"`
	Position string `json:"position" form:"position"`
}

type matchRequest struct {
	TargetRole  string            `json:"target_role"`
	UserSkills  []string          `json:"user_skills"`
	ResumeText  string            `json:"resume_text"`
	Internships []listing.Listing `json:"internships"`
	TopK        int               `json:"top_k"`
}

type searchRequest struct {
	Keywords string   `json:"keywords"`
	Area     areaCode `json:"area"`
}

// areaCode accepts both "1" and 1.
type areaCode int

func (a *areaCode) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*a = 0
		return nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("area must be numeric: %w", err)
	}
	*a = areaCode(v)

	return nil
}

type jobMatch struct {
	MatchPercentage int      `json:"match_percentage"`
	Reason          string   `json:"reason"`
	MissingSkills   []string `json:"missing_skills"`
}

// jobView is the shape the web front end renders.
type jobView struct {
	Name    string   `json:"name"`
	Company string   `json:"company"`
	URL     *string  `json:"url"`
	Match   jobMatch `json:"match"`
}

func jobViews(results []normalize.MatchResult) []jobView {
	views := make([]jobView, 0, len(results))
	for _, r := range results {
		views = append(views, jobView{
			Name:    r.Title,
			Company: r.Company,
			URL:     r.URL,
			Match: jobMatch{
				MatchPercentage: r.MatchScore,
				Reason:          strings.Join(r.WhyMatch, reasonSeparator),
				MissingSkills:   r.MissingSkills,
			},
		})
	}
	return views
}

type field struct {
	name  string
	value string
}

func require(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fiber.NewError(fiber.StatusBadRequest, f.name+" is required")
		}
	}
	return nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	return nil
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) debugLLM(c *fiber.Ctx) error {
	res := s.services.LLM.Ping(c.UserContext())
	if !res.OK() {
		return c.JSON(res.Failure())
	}
	return c.JSON(fiber.Map{"result": res.Text()})
}

func (s *Server) analyzeResume(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}
	if header.Size > document.MaxBytes {
		return document.ErrOversizedInput
	}

	f, err := header.Open()
	if err != nil {
		return fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, document.MaxBytes+1))
	if err != nil {
		return fmt.Errorf("reading upload: %w", err)
	}

	text, err := document.Extract(header.Filename, data)
	if err != nil {
		return err
	}

	analysis := s.services.Resume.Analyze(c.UserContext(), text, c.FormValue("target_role"))
	return c.JSON(fiber.Map{"analysis": analysis})
}

func (s *Server) reviewResume(c *fiber.Ctx) error {
	var req resumeReviewRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := require(field{"resume_text", req.ResumeText}); err != nil {
		return err
	}

	return c.JSON(s.services.Resume.Review(c.UserContext(), req.ResumeText, req.TargetRole))
}

func (s *Server) coverLetter(c *fiber.Ctx) error {
	var req coverLetterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := require(
		field{"resume_text", req.ResumeText},
		field{"job_title", req.JobTitle},
	); err != nil {
		return err
	}

	letter := s.services.Letters.Generate(c.UserContext(), coverletter.Request{
		ResumeText:     req.ResumeText,
		JobTitle:       req.JobTitle,
		Company:        req.Company,
		JobDescription: req.JobDescription,
		Tone:           req.Tone,
	})
	return c.JSON(letter)
}

func (s *Server) interviewStart(c *fiber.Ctx) error {
	var req interviewStartRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := require(field{"role", req.Role}); err != nil {
		return err
	}

	res, err := s.services.Interview.Start(c.UserContext(), req.Role, req.Level, req.Focus)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) interviewTurn(c *fiber.Ctx) error {
	var req interviewTurnRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := require(
		field{"session_id", req.SessionID},
		field{"answer", req.Answer},
	); err != nil {
		return err
	}

	res, err := s.services.Interview.Turn(c.UserContext(), req.SessionID, req.Answer)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// interviewEvaluate accepts multipart form data from the web client as well as JSON.
func (s *Server) interviewEvaluate(c *fiber.Ctx) error {
	var req interviewEvaluateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := require(
		field{"question", req.Question},
		field{"answer", req.Answer},
	); err != nil {
		return err
	}

	return c.JSON(s.services.Interview.Evaluate(c.UserContext(), req.Question, req.Answer, req.Position))
}

func (s *Server) matchJobs(c *fiber.Ctx) error {
	var req matchRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := require(field{"target_role", req.TargetRole}); err != nil {
		return err
	}

	results := s.services.Jobs.Match(c.UserContext(), matching.Request{
		TargetRole: req.TargetRole,
		UserSkills: req.UserSkills,
		ResumeText: req.ResumeText,
		Listings:   req.Internships,
		TopK:       req.TopK,
		Query:      req.TargetRole,
	})

	return c.JSON(fiber.Map{
		"results": results,
		"jobs":    jobViews(results),
	})
}

func (s *Server) searchJobs(c *fiber.Ctx) error {
	var req searchRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	items := s.services.Jobs.Search(c.UserContext(), listing.Query{
		Text: req.Keywords,
		Area: int(req.Area),
	})
	return c.JSON(fiber.Map{"items": items})
}
