package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/abhisek/lodboard/internal/analytics"
)

// policyHandler serves the organization-wide video views of a policy maker.
type policyHandler struct {
	srv    *Server
	logger zerolog.Logger
}

func newPolicyHandler(srv *Server) *policyHandler {
	return &policyHandler{
		srv:    srv,
		logger: srv.deps.Logger.With().Str("component", "policy_handler").Logger(),
	}
}

// Register attaches the policy routes to the router group.
func (h *policyHandler) Register(router fiber.Router) {
	router.Get("/coverage", h.coverage)
	router.Get("/weak-videos", h.weakVideos)
	router.Get("/history", h.history)
}

// views loads the organization's video views inside the requested range,
// optionally narrowed to one user.
func (h *policyHandler) views(c *fiber.Ctx) (analytics.DateRange, []analytics.VideoView, error) {
	r, err := dateRange(c)
	if err != nil {
		return r, nil, err
	}
	sess := sessionFrom(c)
	if sess.OrganizationID == "" {
		return r, []analytics.VideoView{}, nil
	}

	rows, err := h.srv.deps.Learning.OrganizationVideoViews(c.UserContext(), sess.OrganizationID)
	rows = degrade(requestLogger(h.logger, c), "video_views", rows, err)
	rows = analytics.FilterVideoViews(rows, r)
	if userSn := c.Query("user_sn"); userSn != "" {
		kept := rows[:0]
		for _, v := range rows {
			if v.UserSn == userSn {
				kept = append(kept, v)
			}
		}
		rows = kept
	}
	return r, rows, nil
}

type coverageResponse struct {
	Range analytics.DateRange `json:"range"`
	analytics.CoverageSummary
}

func (h *policyHandler) coverage(c *fiber.Ctx) error {
	r, rows, err := h.views(c)
	if err != nil {
		return err
	}
	return c.JSON(coverageResponse{Range: r, CoverageSummary: analytics.VideoCoverage(rows)})
}

type videoListResponse struct {
	Range  analytics.DateRange   `json:"range"`
	Videos []analytics.VideoStat `json:"videos"`
}

func (h *policyHandler) weakVideos(c *fiber.Ctx) error {
	r, rows, err := h.views(c)
	if err != nil {
		return err
	}
	return c.JSON(videoListResponse{Range: r, Videos: analytics.WeakVideos(rows)})
}

func (h *policyHandler) history(c *fiber.Ctx) error {
	r, rows, err := h.views(c)
	if err != nil {
		return err
	}
	return c.JSON(videoListResponse{Range: r, Videos: analytics.VideoHistory(rows)})
}
