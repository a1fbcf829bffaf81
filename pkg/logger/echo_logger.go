// File: pkg/logger/echo_logger.go
package logger

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	apperrors "github.com/wekeepgrowing/agrimarket/pkg/errors"
)

// NewEchoRequestLogger는 Echo 서버를 위한 Request Logger를 생성합니다.
// 상태 코드에 따라 Info/Warn/Error 레벨을 나눠 기록합니다.
func NewEchoRequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		// 헬스 체크는 로그에서 제외
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		HandleError:  true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogMethod:    true,
		LogURI:       true,
		LogRoutePath: true,
		LogRequestID: true,
		LogUserAgent: true,
		LogStatus:    true,
		LogError:     true,
		LogHeaders:   []string{"Authorization"},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request.remote_ip", v.RemoteIP),
				zap.String("request.method", v.Method),
				zap.String("request.uri", v.URI),
				zap.String("request.route", v.RoutePath),
				zap.String("request.user_agent", v.UserAgent),
				zap.String("request.request_id", v.RequestID),
				zap.Int("response.status", v.Status),
				zap.Duration("response.latency", v.Latency),
			}

			// Authorization 헤더 내용은 마스킹 처리
			if values := v.Headers["Authorization"]; len(values) > 0 {
				fields = append(fields, zap.String("request.authorization", maskToken(values[0])))
			}

			switch {
			case v.Error != nil:
				logger.Error("Request failed", append(fields, zap.Error(v.Error))...)
			case v.Status >= 500:
				logger.Error("Server error", fields...)
			case v.Status >= 400:
				logger.Warn("Client error", fields...)
			default:
				logger.Info("Request completed", fields...)
			}
			return nil
		},
	})
}

// maskToken Bearer 토큰 일부만 남깁니다 (예: "Bearer xxxx...xxxx")
func maskToken(val string) string {
	if len(val) > 15 {
		return val[:10] + "..." + val[len(val)-5:]
	}
	return "[MASKED]"
}

// WithEchoLogger Echo의 Logger와 에러 핸들러를 zap 기반으로 교체합니다.
// 에러 응답 본문은 pkg/errors의 코드 매핑을 따릅니다.
func WithEchoLogger(e *echo.Echo, logger *zap.Logger) {
	e.Logger = NewEchoZapLogger(logger)

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		he := apperrors.ToHTTPError(err)

		if he.Code >= http.StatusInternalServerError {
			logger.Error("HTTP error",
				zap.Error(err),
				zap.Int("status", he.Code),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.String("ip", c.RealIP()),
			)
		}

		if c.Response().Committed {
			return
		}

		var respErr error
		if c.Request().Method == http.MethodHead {
			respErr = c.NoContent(he.Code)
		} else {
			switch msg := he.Message.(type) {
			case echo.Map:
				respErr = c.JSON(he.Code, msg)
			case string:
				respErr = c.JSON(he.Code, echo.Map{"error": msg})
			default:
				respErr = c.JSON(he.Code, echo.Map{"error": http.StatusText(he.Code)})
			}
		}
		if respErr != nil {
			logger.Error("Failed to send error response", zap.Error(respErr))
		}
	}
}

// EchoZapLogger는 echo.Logger 인터페이스를 구현한 zap 로거 래퍼입니다.
type EchoZapLogger struct {
	logger *zap.Logger
	sugar  *zap.SugaredLogger
	level  log.Lvl
	prefix string
}

// NewEchoZapLogger는 Echo의 Logger 인터페이스를 구현한 zap 로거 래퍼를 생성합니다.
func NewEchoZapLogger(logger *zap.Logger) *EchoZapLogger {
	return &EchoZapLogger{
		logger: logger,
		sugar:  logger.Sugar(),
		level:  log.INFO,
	}
}

func (l *EchoZapLogger) Output() io.Writer {
	return &zapWriter{logger: l.logger}
}

// SetOutput zap 코어가 출력 대상을 관리하므로 무시됩니다.
func (l *EchoZapLogger) SetOutput(w io.Writer) {}

func (l *EchoZapLogger) Level() log.Lvl {
	return l.level
}

func (l *EchoZapLogger) SetLevel(v log.Lvl) {
	l.level = v
}

// SetHeader 헤더 포맷은 zap 인코더가 결정하므로 무시됩니다.
func (l *EchoZapLogger) SetHeader(h string) {}

func (l *EchoZapLogger) Prefix() string {
	return l.prefix
}

func (l *EchoZapLogger) SetPrefix(p string) {
	l.prefix = p
	l.sugar = l.logger.Named(p).Sugar()
}

// enabled gommon 레벨 필터를 적용합니다.
func (l *EchoZapLogger) enabled(v log.Lvl) bool {
	return l.level != log.OFF && v >= l.level
}

func (l *EchoZapLogger) Print(i ...interface{}) { l.sugar.Info(i...) }

func (l *EchoZapLogger) Printf(format string, i ...interface{}) { l.sugar.Infof(format, i...) }

func (l *EchoZapLogger) Printj(j log.JSON) { l.logJSON(zapcore.InfoLevel, j) }

func (l *EchoZapLogger) Debug(i ...interface{}) {
	if l.enabled(log.DEBUG) {
		l.sugar.Debug(i...)
	}
}

func (l *EchoZapLogger) Debugf(format string, i ...interface{}) {
	if l.enabled(log.DEBUG) {
		l.sugar.Debugf(format, i...)
	}
}

func (l *EchoZapLogger) Debugj(j log.JSON) {
	if l.enabled(log.DEBUG) {
		l.logJSON(zapcore.DebugLevel, j)
	}
}

func (l *EchoZapLogger) Info(i ...interface{}) {
	if l.enabled(log.INFO) {
		l.sugar.Info(i...)
	}
}

func (l *EchoZapLogger) Infof(format string, i ...interface{}) {
	if l.enabled(log.INFO) {
		l.sugar.Infof(format, i...)
	}
}

func (l *EchoZapLogger) Infoj(j log.JSON) {
	if l.enabled(log.INFO) {
		l.logJSON(zapcore.InfoLevel, j)
	}
}

func (l *EchoZapLogger) Warn(i ...interface{}) {
	if l.enabled(log.WARN) {
		l.sugar.Warn(i...)
	}
}

func (l *EchoZapLogger) Warnf(format string, i ...interface{}) {
	if l.enabled(log.WARN) {
		l.sugar.Warnf(format, i...)
	}
}

func (l *EchoZapLogger) Warnj(j log.JSON) {
	if l.enabled(log.WARN) {
		l.logJSON(zapcore.WarnLevel, j)
	}
}

func (l *EchoZapLogger) Error(i ...interface{}) {
	if l.enabled(log.ERROR) {
		l.sugar.Error(i...)
	}
}

func (l *EchoZapLogger) Errorf(format string, i ...interface{}) {
	if l.enabled(log.ERROR) {
		l.sugar.Errorf(format, i...)
	}
}

func (l *EchoZapLogger) Errorj(j log.JSON) {
	if l.enabled(log.ERROR) {
		l.logJSON(zapcore.ErrorLevel, j)
	}
}

func (l *EchoZapLogger) Fatal(i ...interface{}) { l.sugar.Fatal(i...) }

func (l *EchoZapLogger) Fatalf(format string, i ...interface{}) { l.sugar.Fatalf(format, i...) }

func (l *EchoZapLogger) Fatalj(j log.JSON) { l.logJSON(zapcore.FatalLevel, j) }

func (l *EchoZapLogger) Panic(i ...interface{}) { l.sugar.Panic(i...) }

func (l *EchoZapLogger) Panicf(format string, i ...interface{}) { l.sugar.Panicf(format, i...) }

func (l *EchoZapLogger) Panicj(j log.JSON) { l.logJSON(zapcore.PanicLevel, j) }

func (l *EchoZapLogger) logJSON(level zapcore.Level, j log.JSON) {
	if ce := l.logger.Check(level, "json_message"); ce != nil {
		ce.Write(zap.Any("json", j))
	}
}

// zapWriter는 Echo가 직접 쓰는 출력을 zap Info 로그로 전달합니다.
type zapWriter struct {
	logger *zap.Logger
}

func (w *zapWriter) Write(p []byte) (n int, err error) {
	w.logger.Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
