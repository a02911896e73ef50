package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// GormLoggerConfig controls which statements reach the log.
type GormLoggerConfig struct {
	Level                gormlogger.LogLevel
	SlowThreshold        time.Duration
	IgnoreRecordNotFound bool
}

// DefaultGormLoggerConfig reports failed statements and anything slower than
// 200ms. Lookups that find nothing are expected and stay quiet.
func DefaultGormLoggerConfig() GormLoggerConfig {
	return GormLoggerConfig{
		Level:                gormlogger.Warn,
		SlowThreshold:        200 * time.Millisecond,
		IgnoreRecordNotFound: true,
	}
}

// GormLogger writes statement logs through zap, tagged with the request id
// and user of the calling request.
type GormLogger struct {
	log *zap.Logger
	cfg GormLoggerConfig
}

func NewGormLogger(base *zap.Logger, cfg GormLoggerConfig) *GormLogger {
	if base == nil {
		base = zap.L()
	}
	return &GormLogger{log: base.Named("db"), cfg: cfg}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *l
	next.cfg.Level = level
	return &next
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.emit(ctx, gormlogger.Info, msg, args)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.emit(ctx, gormlogger.Warn, msg, args)
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.emit(ctx, gormlogger.Error, msg, args)
}

var gormToZap = map[gormlogger.LogLevel]zapcore.Level{
	gormlogger.Info:  zap.InfoLevel,
	gormlogger.Warn:  zap.WarnLevel,
	gormlogger.Error: zap.ErrorLevel,
}

func (l *GormLogger) emit(ctx context.Context, level gormlogger.LogLevel, msg string, args []interface{}) {
	if l.cfg.Level < level {
		return
	}
	ce := WithContext(ctx, l.log).Check(gormToZap[level], msg)
	if ce == nil {
		return
	}
	if len(args) == 0 {
		ce.Write()
		return
	}
	ce.Write(zap.Any("args", args))
}

// Trace is called by gorm once per statement.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.cfg.Level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	level, ok := l.statementLevel(elapsed, err)
	if !ok {
		return
	}

	ce := WithContext(ctx, l.log).Check(level, "db.statement")
	if ce == nil {
		return
	}

	sql, rows := fc()
	verb, table := describeStatement(sql)
	fields := []zap.Field{
		zap.String("db.verb", verb),
		zap.Duration("elapsed", elapsed),
		zap.String("sql", strings.TrimSpace(sql)),
	}
	if table != "" {
		fields = append(fields, zap.String("db.table", table))
	}
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows", rows))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if l.cfg.SlowThreshold > 0 && elapsed > l.cfg.SlowThreshold {
		fields = append(fields, zap.Bool("slow", true))
	}
	ce.Write(fields...)
}

func (l *GormLogger) statementLevel(elapsed time.Duration, err error) (zapcore.Level, bool) {
	notFound := errors.Is(err, gormlogger.ErrRecordNotFound)
	if err != nil && !(notFound && l.cfg.IgnoreRecordNotFound) && l.cfg.Level >= gormlogger.Error {
		return zap.ErrorLevel, true
	}
	if l.cfg.SlowThreshold > 0 && elapsed > l.cfg.SlowThreshold && l.cfg.Level >= gormlogger.Warn {
		return zap.WarnLevel, true
	}
	if l.cfg.Level >= gormlogger.Info {
		return zap.DebugLevel, true
	}
	return zap.DebugLevel, false
}

// ParamsFilter keeps bound values out of the log. Member addresses, birth
// dates and organization API keys travel as parameters.
func (l *GormLogger) ParamsFilter(_ context.Context, sql string, _ ...interface{}) (string, []interface{}) {
	return sql, nil
}

// describeStatement returns the first DML verb in sql and the table it
// targets, if one can be read off.
func describeStatement(sql string) (verb, table string) {
	tokens := strings.Fields(strings.TrimSpace(sql))
	verb = "UNKNOWN"
	for i, tok := range tokens {
		word := strings.ToUpper(strings.Trim(tok, "();"))
		var marker string
		switch word {
		case "SELECT", "DELETE":
			marker = "FROM"
		case "INSERT":
			marker = "INTO"
		case "UPDATE":
			verb = word
			if i+1 < len(tokens) {
				table = cleanTable(tokens[i+1])
			}
			return verb, table
		default:
			continue
		}
		verb = word
		for j := i + 1; j < len(tokens)-1; j++ {
			if strings.EqualFold(tokens[j], marker) {
				return verb, cleanTable(tokens[j+1])
			}
		}
		return verb, ""
	}
	return verb, ""
}

func cleanTable(tok string) string {
	return strings.ToLower(strings.Trim(tok, "\"`();,"))
}

var _ gormlogger.Interface = (*GormLogger)(nil)
