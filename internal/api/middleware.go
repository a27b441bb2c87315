package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/McomEngine/solinsidefinder/internal/observability"
)

// AccessLogger returns the request logging middleware. Logs go to a
// rotated file as JSON; paths in notLogged are skipped.
func AccessLogger(visitLogFile string, notLogged ...string) gin.HandlerFunc {
	visitLog := logrus.New()
	visitLog.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})
	visitLog.Out = &lumberjack.Logger{
		Filename:   visitLogFile,
		MaxSize:    500,
		MaxBackups: 10,
		MaxAge:     28,
		Compress:   true,
	}

	var skip map[string]struct{}
	if len(notLogged) > 0 {
		skip = make(map[string]struct{}, len(notLogged))
		for _, p := range notLogged {
			skip[p] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		if raw != "" {
			path = path + "?" + raw
		}

		start := time.Now()
		c.Next()
		stop := time.Since(start)
		latency := fmt.Sprintf("%d us", int(math.Ceil(float64(stop.Nanoseconds())/1000.0)))
		statusCode := c.Writer.Status()
		dataLength := c.Writer.Size()
		if dataLength < 0 {
			dataLength = 0
		}

		observability.RecordHTTPRequest(c.FullPath(), strconv.Itoa(statusCode), stop.Seconds())

		if _, ok := skip[path]; ok {
			return
		}

		entry := visitLog.WithFields(logrus.Fields{
			"statusCode": statusCode,
			"latency":    latency,
			"clientIP":   c.ClientIP(),
			"method":     c.Request.Method,
			"path":       path,
			"dataLength": dataLength,
			"userAgent":  c.Request.UserAgent(),
		})

		if len(c.Errors) > 0 {
			entry.Error(c.Errors.ByType(gin.ErrorTypePrivate).String())
		} else {
			if statusCode >= http.StatusInternalServerError {
				entry.Error()
			} else if statusCode >= http.StatusBadRequest {
				entry.Warn()
			} else {
				entry.Info()
			}
		}
	}
}
