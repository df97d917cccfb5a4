package main

import (
	"context"
	"testing"
)

func TestCheckCommand(t *testing.T) {
	tests := []struct {
		name        string
		trace       string
		config      string
		wantJSON    bool
		wantErr     bool
		wantContain []string
	}{
		{
			name:        "short1 consistent",
			trace:       "short1.rep",
			config:      "classic",
			wantContain: []string{"✓ Heap consistent after all 12 operations", "Blocks: 1 (1 free, 12512 free bytes)"},
		},
		{
			name:        "random with a single list",
			trace:       "random.rep",
			config:      "single",
			wantContain: []string{"✓ Heap consistent after all 464 operations", "SingleList"},
		},
		{
			name:        "realloc as JSON",
			trace:       "realloc.rep",
			config:      "classic",
			wantJSON:    true,
			wantContain: []string{`"valid": true`, `"trace": "realloc.rep"`},
		},
		{
			name:        "bad trace op",
			trace:       "dead_free.rep",
			config:      "classic",
			wantErr:     true,
			wantContain: []string{"✗ Heap check failed after 2 operations", "Trace line: 7"},
		},
		{
			name:    "unknown config",
			trace:   "short1.rep",
			config:  "nope",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			jsonOut = tt.wantJSON
			checkConfig = tt.config

			args := []string{traceFile(t, tt.trace)}
			output, err := captureOutput(t, func() error {
				return runCheck(context.Background(), args)
			})

			if (err != nil) != tt.wantErr {
				t.Errorf("runCheck() error = %v, wantErr %v\nOutput: %s", err, tt.wantErr, output)
				return
			}
			if tt.wantJSON {
				var rep CheckReport
				assertJSON(t, output, &rep)
			}
			assertContains(t, output, tt.wantContain)
		})
	}
}
