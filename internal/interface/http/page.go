package http

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

// indexHTML is the static dashboard. It polls /api/alldata from the browser;
// no data is templated into it server-side.
//
//go:embed public/index.html
var indexHTML []byte

func servePage(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}
