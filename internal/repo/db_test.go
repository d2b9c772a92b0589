package repo

import (
	"context"
	"errors"
	"testing"
)

func TestNewPool_InvalidDSN(t *testing.T) {
	tests := []struct {
		name    string
		dsn     string
		wantErr error
	}{
		{"empty", "", ErrNoDSN},
		{"garbage", "postgres://%zz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := NewPool(context.Background(), tt.dsn)
			if err == nil {
				pool.Close()
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
