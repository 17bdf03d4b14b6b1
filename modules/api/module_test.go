package api

import (
	"context"
	"testing"

	taskmod "github.com/example/task-tracker/modules/task"
	"github.com/stretchr/testify/assert"
)

func TestModule_Name(t *testing.T) {
	assert.Equal(t, "api", NewModule(testConfig(), nil, &mockLogger{}).Name())
}

func TestModule_StartWithoutTaskService(t *testing.T) {
	m := NewModule(testConfig(), taskmod.NewModule(taskmod.Config{}, &mockLogger{}), &mockLogger{})

	err := m.Start(context.Background())
	assert.Error(t, err, "task module has not started")
	assert.False(t, m.Health(context.Background()).Healthy)
}

func TestModule_StopBeforeStart(t *testing.T) {
	m := NewModule(testConfig(), nil, &mockLogger{})
	assert.NoError(t, m.Stop(context.Background()))
}

func TestParseRedisAddr(t *testing.T) {
	tests := []struct {
		addr     string
		wantHost string
		wantPort int
	}{
		{"localhost:6380", "localhost", 6380},
		{":6379", "127.0.0.1", 6379},
		{"redis", "127.0.0.1", 6379},
		{"redis:abc", "redis", 6379},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			host, port := parseRedisAddr(tt.addr)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPort, port)
		})
	}
}

func TestNewLimiterStorage_Memory(t *testing.T) {
	assert.Nil(t, newLimiterStorage(""))
}

func TestModule_Dependencies(t *testing.T) {
	m := NewModule(testConfig(), nil, &mockLogger{})
	assert.Equal(t, []string{"task"}, m.Dependencies())
}
