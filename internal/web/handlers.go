package web

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"grimaldi/internal/analysis"
	"grimaldi/internal/composition"
	"grimaldi/internal/excel"
	"grimaldi/internal/repository"
)

const (
	historyLimit = 12
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// AnalysisResponse is the JSON view of a stored analysis.
type AnalysisResponse struct {
	ID             string                     `json:"id"`
	UserID         int64                      `json:"user_id"`
	CreatedAt      time.Time                  `json:"created_at"`
	VisionUsed     bool                       `json:"vision_used"`
	Fallback       bool                       `json:"fallback,omitempty"`
	Result         *composition.Result        `json:"result"`
	Interpretation composition.Interpretation `json:"interpretation"`
}

func newAnalysisResponse(out *analysis.Outcome) AnalysisResponse {
	return AnalysisResponse{
		ID:             out.Record.ID,
		UserID:         out.Record.UserID,
		CreatedAt:      out.Record.CreatedAt,
		VisionUsed:     out.VisionUsed,
		Fallback:       out.Fallback,
		Result:         out.Result,
		Interpretation: composition.InterpretResults(out.Result),
	}
}

// CreateAnalysisRequest is the body of POST /api/analyses. Without a
// profile the stored client profile is used; with measurements the vision
// step is skipped.
type CreateAnalysisRequest struct {
	UserID          int64                     `json:"user_id"`
	Profile         *composition.Profile      `json:"profile"`
	Measurements    *composition.Measurements `json:"measurements"`
	FrontalImageURL string                    `json:"frontal_image_url"`
	LateralImageURL string                    `json:"lateral_image_url"`
}

// RecomputeRequest is the body of PUT /api/analyses/:id.
type RecomputeRequest struct {
	Profile      *composition.Profile      `json:"profile"`
	Measurements *composition.Measurements `json:"measurements"`
}

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	Name string `json:"name"`
	composition.Profile
}

// UserResponse is the JSON view of a client profile.
type UserResponse struct {
	UserID        int64     `json:"user_id"`
	TelegramID    int64     `json:"telegram_id,omitempty"`
	Name          string    `json:"name"`
	HeightM       float64   `json:"height_m"`
	WeightKg      float64   `json:"weight_kg"`
	Age           int       `json:"age"`
	Sex           string    `json:"sex"`
	SpreadsheetID string    `json:"spreadsheet_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func newUserResponse(p *repository.Profile) UserResponse {
	return UserResponse{
		UserID:        p.UserID,
		TelegramID:    p.TelegramID,
		Name:          p.Name,
		HeightM:       p.HeightM,
		WeightKg:      p.WeightKg,
		Age:           p.Age,
		Sex:           p.Sex,
		SpreadsheetID: p.SpreadsheetID.String,
		CreatedAt:     p.CreatedAt,
	}
}

// DashboardEntry is one row of GET /api/dashboard.
type DashboardEntry struct {
	UserID     int64     `json:"user_id"`
	AnalysisID string    `json:"analysis_id"`
	CreatedAt  time.Time `json:"created_at"`
	Score      int       `json:"score"`
	FatPercent float64   `json:"fat_percent"`
	BMI        float64   `json:"bmi"`
	Waist      float64   `json:"waist"`
	VisionUsed bool      `json:"vision_used"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleCreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := composition.ValidateProfile(req.Profile); err != nil {
		return err
	}
	if !req.Sex.Valid() {
		return composition.ValidationError{Field: "sex", Message: "Sexo inválido"}
	}

	p := &repository.Profile{
		Name:     req.Name,
		HeightM:  req.HeightM,
		WeightKg: req.WeightKg,
		Age:      req.Age,
		Sex:      string(req.Sex),
	}
	if err := s.profiles.Create(c.UserContext(), p); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newUserResponse(p))
}

func (s *Server) handleGetUser(c *fiber.Ctx) error {
	userID, err := userIDParam(c)
	if err != nil {
		return err
	}
	p, err := s.profiles.GetByUserID(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(newUserResponse(p))
}

func (s *Server) handleLatest(c *fiber.Ctx) error {
	userID, err := userIDParam(c)
	if err != nil {
		return err
	}
	out, err := s.analyzer.Latest(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(newAnalysisResponse(out))
}

func (s *Server) handleCreateAnalysis(c *fiber.Ctx) error {
	var req CreateAnalysisRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if req.UserID <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "user_id is required")
	}

	// профиль нужен и для проверки существования клиента
	stored, err := s.profiles.GetByUserID(c.UserContext(), req.UserID)
	if err != nil {
		return err
	}
	profile := stored.Composition()
	if req.Profile != nil {
		profile = *req.Profile
	}
	if !profile.Sex.Valid() {
		return composition.ValidationError{Field: "sex", Message: "Sexo inválido"}
	}

	out, err := s.analyzer.Run(c.UserContext(), analysis.Request{
		UserID:          req.UserID,
		Profile:         profile,
		FrontalImageURL: req.FrontalImageURL,
		LateralImageURL: req.LateralImageURL,
		Measurements:    req.Measurements,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newAnalysisResponse(out))
}

func (s *Server) handleGetAnalysis(c *fiber.Ctx) error {
	out, err := s.analyzer.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(newAnalysisResponse(out))
}

func (s *Server) handleRecompute(c *fiber.Ctx) error {
	var req RecomputeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if req.Profile == nil && req.Measurements == nil {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to change")
	}
	if req.Profile != nil && !req.Profile.Sex.Valid() {
		return composition.ValidationError{Field: "sex", Message: "Sexo inválido"}
	}

	out, err := s.analyzer.Recompute(c.UserContext(), c.Params("id"), analysis.Edit{
		Profile:      req.Profile,
		Measurements: req.Measurements,
	})
	if err != nil {
		return err
	}
	return c.JSON(newAnalysisResponse(out))
}

func (s *Server) handleDeleteAnalysis(c *fiber.Ctx) error {
	if err := s.analyzer.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleExport(c *fiber.Ctx) error {
	ctx := c.UserContext()
	out, err := s.analyzer.Get(ctx, c.Params("id"))
	if err != nil {
		return err
	}

	name := fmt.Sprintf("#%d", out.Record.UserID)
	if p, err := s.profiles.GetByUserID(ctx, out.Record.UserID); err == nil && p.Name != "" {
		name = p.Name
	}

	history, err := s.records.History(ctx, out.Record.UserID, historyLimit)
	if err != nil {
		s.logger.Warn("история недоступна", "user_id", out.Record.UserID, "error", err)
	}

	var buf bytes.Buffer
	err = excel.WriteReport(&buf, excel.Report{
		Name:       name,
		CreatedAt:  out.Record.CreatedAt,
		Result:     out.Result,
		VisionUsed: out.VisionUsed,
		History:    excel.HistoryFromRecords(history),
	})
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, xlsxMIME)
	c.Attachment(excel.ReportFileName(name, out.Record.CreatedAt))
	return c.Send(buf.Bytes())
}

func (s *Server) handleDashboard(c *fiber.Ctx) error {
	records, err := s.records.ListLatestPerUser(c.UserContext())
	if err != nil {
		return &analysis.PersistenceError{Op: "dashboard", Err: err}
	}

	if c.Query("format") == "xlsx" {
		rows := make([]excel.DashboardRow, 0, len(records))
		for _, r := range records {
			name := ""
			if p, err := s.profiles.GetByUserID(c.UserContext(), r.UserID); err == nil {
				name = p.Name
			}
			rows = append(rows, excel.DashboardRow{
				UserID: r.UserID, Name: name, At: r.CreatedAt, Score: r.Score,
				FatPercent: r.FatPercent, BMI: r.BMI, Waist: r.Waist, VisionUsed: r.VisionUsed,
			})
		}

		var buf bytes.Buffer
		if err := excel.WriteDashboard(&buf, rows); err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, xlsxMIME)
		c.Attachment("dashboard.xlsx")
		return c.Send(buf.Bytes())
	}

	entries := make([]DashboardEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, DashboardEntry{
			UserID:     r.UserID,
			AnalysisID: r.ID,
			CreatedAt:  r.CreatedAt,
			Score:      r.Score,
			FatPercent: r.FatPercent,
			BMI:        r.BMI,
			Waist:      r.Waist,
			VisionUsed: r.VisionUsed,
		})
	}
	return c.JSON(entries)
}

func userIDParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}
	return id, nil
}
