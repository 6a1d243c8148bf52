package http

import (
	"net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/adapters/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

const refreshTokenCookie = "refreshToken"

type cookieJar struct {
	domain      string
	refreshPath string
}

func (j cookieJar) set(c *gin.Context, name, value string, ttl time.Duration, path string) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(name, value, int(ttl.Seconds()), path, j.domain, true, true)
}

func (j cookieJar) setAccess(c *gin.Context, token string, ttl time.Duration) {
	j.set(c, middleware.AccessTokenCookie, token, ttl, "/")
}

func (j cookieJar) setRefresh(c *gin.Context, token string, ttl time.Duration) {
	j.set(c, refreshTokenCookie, token, ttl, j.refreshPath)
}

// clear просит браузер удалить обе куки (Max-Age=0 в заголовке).
func (j cookieJar) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", j.domain, true, true)
	c.SetCookie(refreshTokenCookie, "", -1, j.refreshPath, j.domain, true, true)
}
