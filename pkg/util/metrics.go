package util

import (
	"time"

	"github.com/influxdata/influxdb-client-go/api/write"
)

func TimeOperationMicroseconds(op func()) int64 {
	start := time.Now()
	op()
	return time.Since(start).Microseconds()
}

// MockWriteAPI satisfies api.WriteAPI without talking to an InfluxDB.
// It is the default metrics sink when no InfluxDB host is configured,
// and is used throughout the tests.
type MockWriteAPI struct{}

func (m *MockWriteAPI) WriteRecord(line string)       {}
func (m *MockWriteAPI) WritePoint(point *write.Point) {}
func (m *MockWriteAPI) Flush()                        {}
func (m *MockWriteAPI) Close()                        {}
func (m *MockWriteAPI) Errors() <-chan error          { return nil }
