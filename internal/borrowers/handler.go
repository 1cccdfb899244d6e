package borrowers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/borrowers", h.ListBorrowers)
	r.GET("/borrowers/:borrower_id", h.GetBorrower)
	r.POST("/borrowers", h.CreateBorrower)
	r.PUT("/borrowers/:borrower_id", h.UpdateBorrower)
	r.DELETE("/borrowers/:borrower_id", h.DeleteBorrower)
}

func (h *Handler) ListBorrowers(c *gin.Context) {
	res, err := h.svc.ListBorrowers(c.Request.Context())
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetBorrower(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("borrower_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "borrower_id must be a number"))
		return
	}
	res, err := h.svc.GetBorrower(c.Request.Context(), id)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) CreateBorrower(c *gin.Context) {
	var req CreateBorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.CreateBorrower(c.Request.Context(), req)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.Header("Location", "/borrowers/"+strconv.FormatInt(res.BorrowerID, 10))
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) UpdateBorrower(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("borrower_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "borrower_id must be a number"))
		return
	}
	var req UpdateBorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.UpdateBorrower(c.Request.Context(), id, req)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteBorrower(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("borrower_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "borrower_id must be a number"))
		return
	}
	if err := h.svc.DeleteBorrower(c.Request.Context(), id); err != nil {
		h.respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ===== helpers =====

// internal faults are logged here and surfaced as a generic 500 body
func (h *Handler) respondErr(c *gin.Context, err error) {
	status := toHTTPStatus(err)
	if status >= 500 {
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, apiErr(CodeInternal, "internal error"))
		return
	}
	if api, ok := err.(*APIError); ok {
		c.JSON(status, apiErr(api.Code, api.Message))
		return
	}
	c.JSON(status, apiErr(CodeInternal, "internal error"))
}

type errDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func apiErr(code Code, msg string) errDTO {
	var e errDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}
