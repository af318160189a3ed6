package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/easterncc001/shift-logger/internal/service"
	"github.com/easterncc001/shift-logger/pkg/response"
)

// ledgerErrorCodes 台账业务错误 → 业务码；消息直接取错误文本
var ledgerErrorCodes = []struct {
	err  error
	code int
}{
	{service.ErrNameRequired, 21001},
	{service.ErrSubcontractorRequired, 21002},
	{service.ErrJobSiteRequired, 21003},
	{service.ErrUnknownJobSite, 21004},
	{service.ErrCodeFormat, 21005},
	{service.ErrAmbiguousShift, 21006},
	{service.ErrInvalidClockRange, 21007},
	{service.ErrInvalidTime, 21008},
	{service.ErrAlreadyClockedIn, 21101},
	{service.ErrAlreadyOnBreak, 21102},
	{service.ErrAlreadyClockedOut, 21103},
	{service.ErrCodeNotFound, 21201},
	{service.ErrNoBreakToResume, 21202},
	{service.ErrShiftNotFound, 21203},
}

// handleLedgerError 按错误分类写出 400 / 404 / 409 / 500
func handleLedgerError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrCodeSpaceExhausted) {
		response.ServiceUnavailable(c, 21301, service.ErrCodeSpaceExhausted.Error())
		return
	}

	code, message := 0, ""
	for _, e := range ledgerErrorCodes {
		if errors.Is(err, e.err) {
			code, message = e.code, e.err.Error()
			break
		}
	}

	switch service.ErrorKind(err) {
	case service.KindValidation:
		response.BadRequest(c, code, message)
	case service.KindConflict:
		response.Conflict(c, code, message)
	case service.KindNotFound:
		response.NotFound(c, code, message)
	default:
		response.InternalError(c)
	}
}
