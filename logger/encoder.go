package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"

	colorTime   = "\x1b[38;5;245m" // Dim grey timestamps
	colorFields = "\x1b[38;5;109m" // Soft blue structured fields
	colorWarn   = "\x1b[38;5;214m" // Soft yellow
	colorErr    = "\x1b[38;5;167m" // Warm red
)

// consoleEncoder implements a calm, compact console encoder.
// Format: "13:04:35  Imported snapshot  series=lokken_mechanists day=14400"
type consoleEncoder struct {
	zapcore.Encoder // Embed a base encoder for field serialization
	buf             *buffer.Buffer
}

func newConsoleEncoder() *consoleEncoder {
	// Base JSON encoder covers field types we don't render ourselves
	baseEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())

	return &consoleEncoder{
		Encoder: baseEncoder,
		buf:     buffer.NewPool().Get(),
	}
}

func (enc *consoleEncoder) Clone() zapcore.Encoder {
	return &consoleEncoder{
		Encoder: enc.Encoder.Clone(),
		buf:     buffer.NewPool().Get(),
	}
}

func (enc *consoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := buffer.NewPool().Get()

	final.AppendString(colorTime)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Level shown only when it carries information (WARN and up)
	if ent.Level > zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(levelColorString(ent.Level))
	}

	final.AppendString("  ")
	final.AppendString(ent.Message)

	if len(fields) > 0 {
		final.AppendString("  ")
		final.AppendString(colorFields)
		final.AppendString(renderFields(fields))
		final.AppendString(colorReset)
	}

	final.AppendString("\n")
	return final, nil
}

func levelColorString(level zapcore.Level) string {
	switch level {
	case zapcore.WarnLevel:
		return colorBold + colorWarn + "WARN" + colorReset
	case zapcore.ErrorLevel:
		return colorBold + colorErr + "ERROR" + colorReset
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return colorBold + colorErr + level.CapitalString() + colorReset
	default:
		return ""
	}
}

// renderFields flattens structured fields into "key=value" pairs.
func renderFields(fields []zapcore.Field) string {
	pairs := make([]string, 0, len(fields))
	for _, field := range fields {
		value := fieldValue(field)
		if value == "" {
			continue
		}
		pairs = append(pairs, field.Key+"="+value)
	}
	return strings.Join(pairs, " ")
}

func fieldValue(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", field.Integer)
	case zapcore.BoolType:
		if field.Integer == 1 {
			return "true"
		}
		return "false"
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok {
			return err.Error()
		}
	}
	if field.Interface != nil {
		return fmt.Sprintf("%v", field.Interface)
	}
	return ""
}
