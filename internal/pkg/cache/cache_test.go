package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/swiden/trackstore/internal/pkg/config"
)

func TestNewClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := NewClient(ctx, config.Cache{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}
