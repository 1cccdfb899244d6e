package loans

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/loans/issue", h.IssueLoan)
	r.POST("/loans/return", h.ReturnLoan)
	r.POST("/loans/return-by-book", h.ReturnLoanByBook)
	r.GET("/loans/overdue", h.ListOverdue)
	r.GET("/loans", h.ListAll)
	r.GET("/loans/borrower/:borrower_id", h.ListByBorrower)
}

func (h *Handler) IssueLoan(c *gin.Context) {
	var req IssueLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Issue(c.Request.Context(), req)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.Header("Location", "/loans/"+strconv.FormatInt(res.LoanID, 10))
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ReturnLoan(c *gin.Context) {
	var req ReturnLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Return(c.Request.Context(), req)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ReturnLoanByBook(c *gin.Context) {
	var req ReturnByBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.ReturnByBook(c.Request.Context(), req)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListOverdue(c *gin.Context) {
	res, err := h.svc.ListOverdue(c.Request.Context())
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListAll(c *gin.Context) {
	res, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListByBorrower(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("borrower_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "borrower_id must be a number"))
		return
	}
	res, err := h.svc.ListByBorrower(c.Request.Context(), id)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
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
