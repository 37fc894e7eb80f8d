package utils

import (
	"testing"
	"time"
)

func TestPoolConfigDefaults(t *testing.T) {
	c := PoolConfig{}.withDefaults()
	if c.MaxOpenConns <= 0 || c.MaxIdleConns <= 0 {
		t.Fatalf("expected positive pool defaults, got %+v", c)
	}
	if c.PingTimeout != 5*time.Second {
		t.Fatalf("expected 5s ping timeout default, got %v", c.PingTimeout)
	}
}

func TestPoolConfigKeepsExplicitValues(t *testing.T) {
	c := PoolConfig{MaxOpenConns: 3, PingTimeout: time.Second}.withDefaults()
	if c.MaxOpenConns != 3 {
		t.Fatalf("expected explicit MaxOpenConns kept, got %d", c.MaxOpenConns)
	}
	if c.PingTimeout != time.Second {
		t.Fatalf("expected explicit PingTimeout kept, got %v", c.PingTimeout)
	}
}
