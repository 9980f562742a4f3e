package engine

import (
	"bytes"
	"math"
	"testing"

	"github.com/angelmondragon/perfdash-backend/pkg/logger"
)

func mustDate(t *testing.T, value string) Date {
	t.Helper()
	d, err := ParseDate(value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return d
}

func bufferedLogger() (*logger.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return logger.New(logger.Options{ServiceName: "engine-test", Output: buf}), buf
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func row(date string, fields map[string]float64) RawRow {
	return RawRow{Date: date, Fields: fields}
}
