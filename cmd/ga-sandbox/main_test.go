package main

import (
	"testing"

	"github.com/SebastienMelki/gameanalytics"
	"github.com/SebastienMelki/gameanalytics/internal/transport"
)

func TestMirrorGameKey(t *testing.T) {
	tests := []struct {
		name string
		cfg  gameanalytics.Config
		want string
	}{
		{name: "production", cfg: gameanalytics.Config{GameKey: "prod-key"}, want: "prod-key"},
		{name: "sandbox without key", cfg: gameanalytics.Config{Sandbox: true}, want: transport.SandboxGameKey},
		{name: "sandbox overrides key", cfg: gameanalytics.Config{Sandbox: true, GameKey: "prod-key"}, want: transport.SandboxGameKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mirrorGameKey(tt.cfg); got != tt.want {
				t.Errorf("mirrorGameKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
